// Package ebnflex turns raw text into the token sequence handed to the
// parser. Token kinds are the uppercase productions of an EBNF grammar; the
// longest match wins and ties go to the alphabetically first kind.
package ebnflex

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

//go:embed default.ebnf
var defaultGrammar string

// DefaultGrammar returns the built-in lexical grammar: words, numbers and
// single punctuation marks separated by white space.
func DefaultGrammar() ebnf.Grammar {
	g, err := ebnf.Parse("default.ebnf", strings.NewReader(defaultGrammar))
	if err != nil {
		panic(fmt.Sprintf("ebnflex: default grammar: %v", err))
	}
	return g
}

// Position represents a location in the input.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// memoKey is used for memoization of match results.
type memoKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar.
type Lexer struct {
	grammar  ebnf.Grammar
	kinds    []string
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int  // memoization cache: key -> match length or noMatch
	visiting map[memoKey]bool // cycle detection
}

// NewLexer creates a lexer for the given grammar and input.
func NewLexer(grammar ebnf.Grammar, input []byte, filename string) *Lexer {
	var kinds []string
	for name, prod := range grammar {
		if prod.Expr != nil && isTokenKind(name) {
			kinds = append(kinds, name)
		}
	}
	sort.Strings(kinds)

	return &Lexer{
		grammar:  grammar,
		kinds:    kinds,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

func isTokenKind(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r >= 'A' && r <= 'Z'
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammar, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return grammar, nil
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	r, size := utf8.DecodeRune(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// NextToken returns the next token from the input. Input no token kind
// matches is returned one rune at a time as ERROR tokens.
func (l *Lexer) NextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Kind: "EOF", Position: l.Position()}, io.EOF
	}

	startPos := l.Position()
	startOffset := l.pos

	// Positions change between tokens.
	l.memo = make(map[memoKey]int)

	var bestKind string
	var bestLen int
	for _, name := range l.kinds {
		l.visiting = make(map[memoKey]bool)
		matchLen := l.tryMatch(l.grammar[name].Expr, startOffset)
		if matchLen > bestLen {
			bestLen = matchLen
			bestKind = name
		}
	}

	if bestLen == 0 {
		l.advance()
		return Token{
			Kind:     "ERROR",
			Literal:  string(l.input[startOffset:l.pos]),
			Position: startPos,
		}, nil
	}

	for l.pos < startOffset+bestLen {
		l.advance()
	}

	return Token{
		Kind:     bestKind,
		Literal:  string(l.input[startOffset:l.pos]),
		Position: startPos,
	}, nil
}

// noMatch is returned by the matchers when expr does not match at all. A
// zero length is a successful empty match, as for an empty repetition.
const noMatch = -1

// tryMatch returns the length in bytes of the longest match of expr at
// offset, or noMatch.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case nil:
		return 0

	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := l.tryMatch(item, offset+total)
			if n == noMatch {
				return noMatch
			}
			total += n
		}
		return total

	case ebnf.Alternative:
		best := noMatch
		for _, alt := range e {
			if n := l.tryMatch(alt, offset); n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		for {
			// An empty match would repeat forever.
			n := l.tryMatch(e.Body, offset+total)
			if n <= 0 {
				break
			}
			total += n
		}
		return total

	case *ebnf.Option:
		if n := l.tryMatch(e.Body, offset); n > 0 {
			return n
		}
		return 0

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)
	}
	return noMatch
}

// tryMatchName matches a named production with memoization and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}

	if result, ok := l.memo[key]; ok {
		return result
	}

	// Left recursion.
	if l.visiting[key] {
		return noMatch
	}

	prod, ok := l.grammar[name]
	if !ok {
		l.memo[key] = noMatch
		return noMatch
	}

	l.visiting[key] = true
	result := l.tryMatch(prod.Expr, offset)
	delete(l.visiting, key)

	l.memo[key] = result
	return result
}

func (l *Lexer) tryMatchToken(s string, offset int) int {
	if offset+len(s) > len(l.input) {
		return noMatch
	}
	if string(l.input[offset:offset+len(s)]) == s {
		return len(s)
	}
	return noMatch
}

// tryMatchRange matches one rune between begin and end inclusive.
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return noMatch
	}
	lo, n := utf8.DecodeRuneInString(begin)
	if n != len(begin) {
		return noMatch
	}
	hi, n := utf8.DecodeRuneInString(end)
	if n != len(end) {
		return noMatch
	}
	r, size := utf8.DecodeRune(l.input[offset:])
	if r >= lo && r <= hi {
		return size
	}
	return noMatch
}

// Tokenize reads all tokens from input. The last token has kind EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
	}
}

// Words tokenizes text with the default grammar and returns the literals,
// dropping white space. Unrecognized input is an error.
func Words(text string) ([]string, error) {
	return WordsWith(DefaultGrammar(), text, "WhiteSpace")
}

// WordsWith tokenizes text with g and returns the literals of every token
// whose kind is not listed in skip.
func WordsWith(g ebnf.Grammar, text string, skip ...string) ([]string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}

	tokens, err := NewLexer(g, []byte(text), "").Tokenize()
	if err != nil {
		return nil, err
	}

	words := []string{}
	for _, tok := range tokens {
		switch {
		case tok.Kind == "EOF" || skipped[tok.Kind]:
		case tok.Kind == "ERROR":
			return nil, fmt.Errorf("tokenize: unexpected %q at %s", tok.Literal, tok.Position)
		default:
			words = append(words, tok.Literal)
		}
	}
	return words, nil
}
