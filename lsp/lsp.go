// Package lsp implements a language server for grammar files.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamidi/pcfg/grammar"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "pcfg"

type document struct {
	text    string
	grammar *grammar.Grammar
}

// LSPServer checks grammar files as they are edited and offers nonterminal
// completion.
type LSPServer struct {
	handler   protocol.Handler
	server    *server.Server
	version   string
	tolerance float64
	log       commonlog.Logger

	mu   sync.Mutex
	docs map[string]*document
}

// NewLSPServer creates a server that verifies grammars with the given
// probability-sum tolerance.
func NewLSPServer(version string, tolerance float64) *LSPServer {
	ls := &LSPServer{
		version:   version,
		tolerance: tolerance,
		log:       commonlog.GetLogger("pcfg.lsp"),
		docs:      map[string]*document{},
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

// RunStdio serves the protocol over stdin and stdout until the client exits.
func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    intPtr(int(protocol.TextDocumentSyncKindFull)),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{" "},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// update stores text for uri and returns the diagnostics to publish. The
// grammar of the last readable version is kept for completion.
func (ls *LSPServer) update(uri, text string) []protocol.Diagnostic {
	filename, err := uriToPath(uri)
	if err != nil {
		filename = uri
	}
	diagnostics, g := Diagnose(filename, text, ls.tolerance)

	ls.mu.Lock()
	defer ls.mu.Unlock()
	doc, ok := ls.docs[uri]
	if !ok {
		doc = &document{}
		ls.docs[uri] = doc
	}
	doc.text = text
	if g != nil {
		doc.grammar = g
	}

	ls.log.Debugf("%s: %d diagnostics", filename, len(diagnostics))
	return diagnostics
}

func (ls *LSPServer) publish(ctx *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.publish(ctx, params.TextDocument.URI, ls.update(params.TextDocument.URI, params.TextDocument.Text))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.publish(ctx, params.TextDocument.URI, ls.update(params.TextDocument.URI, textChange.Text))
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()

	ls.publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.publish(ctx, params.TextDocument.URI, ls.update(params.TextDocument.URI, *params.Text))
	}
	return nil
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	ls.mu.Lock()
	doc, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok || doc.grammar == nil {
		return nil, nil
	}

	prefix := wordBefore(doc.text, int(params.Position.Line), int(params.Position.Character))
	items := completions(doc.grammar, prefix)
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// completions offers the nonterminals of g starting with prefix.
func completions(g *grammar.Grammar, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, nt := range g.Nonterminals() {
		if !strings.HasPrefix(string(nt), prefix) {
			continue
		}
		kind := protocol.CompletionItemKindClass
		detail := "nonterminal"
		if nt == g.Start() {
			detail = "start symbol"
		}
		items = append(items, protocol.CompletionItem{
			Label:  string(nt),
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items
}

// wordBefore returns the partial symbol left of the 0-based position.
func wordBefore(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	runes := []rune(lines[line])
	if character > len(runes) {
		character = len(runes)
	}
	start := character
	for start > 0 && !isSeparator(runes[start-1]) {
		start--
	}
	return string(runes[start:character])
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == ';' || r == '>'
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *protocol.TextDocumentSyncKind {
	v := protocol.TextDocumentSyncKind(i)
	return &v
}
