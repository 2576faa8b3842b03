package grammar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// sourceLine is the part of a grammar line left of its last ';': either a
// rule "LHS -> RHS" or a start declaration "S". The probability after the
// last ';' is read separately, so ';' may itself be a terminal.
type sourceLine struct {
	Pos lexer.Position

	Head  string   `parser:"@Symbol"`
	Arrow bool     `parser:"( @Arrow"`
	RHS   []string `parser:"  @Symbol+ )?"`
}

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Arrow", Pattern: `->`},
	{Name: "Symbol", Pattern: `\S+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var lineParser = participle.MustBuild[sourceLine](
	participle.Lexer(lineLexer),
	participle.Elide("Whitespace"),
)

// ReadError is a syntax or value error at a position of a grammar source.
type ReadError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
}

func (e *ReadError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ErrNoStart is returned when a grammar source never declares a start symbol.
var ErrNoStart = errors.New("no start symbol declared")

// LoadGrammar reads a grammar from a file.
func LoadGrammar(filename string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open grammar")
	}
	defer f.Close()

	return Read(filename, f)
}

// Read parses a grammar in the line-oriented source format. Blank lines and
// lines starting with '#' are ignored. When several start declarations are
// present the last one wins. All line errors are reported together.
func Read(filename string, r io.Reader) (*Grammar, error) {
	var (
		start  Symbol
		rules  []*Rule
		result *multierror.Error
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rule, startSymbol, err := parseLine(filename, lineNo, text)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if rule != nil {
			rules = append(rules, rule)
		} else {
			start = startSymbol
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read grammar %s", filename)
	}

	if start == "" && result == nil {
		result = multierror.Append(result, errors.Wrapf(ErrNoStart, "grammar %s", filename))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return New(start, rules), nil
}

// parseLine returns either a rule or, for start declarations, the symbol.
func parseLine(filename string, lineNo int, text string) (*Rule, Symbol, error) {
	semi := strings.LastIndex(text, ";")
	if semi < 0 {
		return nil, "", &ReadError{
			Filename: filename,
			Line:     lineNo,
			Column:   utf8.RuneCountInString(text) + 1,
			Msg:      `missing ";" before probability`,
		}
	}
	body, after := text[:semi], text[semi+1:]
	probText := strings.TrimSpace(after)
	lead := len(after) - len(strings.TrimLeft(after, " \t"))
	probColumn := utf8.RuneCountInString(text[:semi+1+lead]) + 1

	parsed, err := lineParser.ParseString(filename, body)
	if err != nil {
		readErr := &ReadError{Filename: filename, Line: lineNo, Column: 1, Msg: err.Error()}
		if perr, ok := err.(participle.Error); ok {
			readErr.Column = perr.Position().Column
			readErr.Msg = perr.Message()
		}
		return nil, "", readErr
	}

	prob, err := strconv.ParseFloat(probText, 64)
	if err != nil {
		return nil, "", &ReadError{
			Filename: filename,
			Line:     lineNo,
			Column:   probColumn,
			Msg:      fmt.Sprintf("float expected but %q found", probText),
		}
	}

	if !parsed.Arrow {
		return nil, Symbol(parsed.Head), nil
	}

	if !(prob > 0 && prob <= 1) {
		return nil, "", &ReadError{
			Filename: filename,
			Line:     lineNo,
			Column:   probColumn,
			Msg:      fmt.Sprintf("probability %g outside (0, 1]", prob),
		}
	}

	rule := &Rule{
		LHS:         Symbol(parsed.Head),
		RHS:         make([]Symbol, len(parsed.RHS)),
		Probability: prob,
		Line:        lineNo,
	}
	for i, s := range parsed.RHS {
		rule.RHS[i] = Symbol(s)
	}
	return rule, "", nil
}
