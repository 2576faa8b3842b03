package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dhamidi/pcfg/ebnflex"
	"github.com/dhamidi/pcfg/format"
)

type sentenceRequest struct {
	Sentence string   `json:"sentence"`
	Tokens   []string `json:"tokens"`
}

type recognizeResponse struct {
	Tokens     []string `json:"tokens"`
	InLanguage bool     `json:"in_language"`
}

type parseResponse struct {
	Tokens []string        `json:"tokens"`
	Parsed bool            `json:"parsed"`
	Result json.RawMessage `json:"result,omitempty"`
	Charts json.RawMessage `json:"charts,omitempty"`
}

type grammarResponse struct {
	Start        string   `json:"start"`
	Rules        []string `json:"rules"`
	Nonterminals []string `json:"nonterminals"`
	Terminals    []string `json:"terminals"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// readTokens decodes the request body. Explicit tokens take precedence over
// a sentence, which is tokenized with the default lexical grammar.
func (s *Server) readTokens(w http.ResponseWriter, r *http.Request) ([]string, int, error) {
	var req sentenceRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err)
	}

	tokens := req.Tokens
	if tokens == nil {
		if req.Sentence == "" {
			return nil, http.StatusBadRequest, fmt.Errorf("must provide sentence or tokens")
		}
		var err error
		tokens, err = ebnflex.Words(req.Sentence)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
	}

	if len(tokens) > s.maxTokens {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Errorf("sentence has %d tokens, limit is %d", len(tokens), s.maxTokens)
	}
	return tokens, http.StatusOK, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	g := s.parser.Grammar()
	resp := grammarResponse{
		Start:        string(g.Start()),
		Rules:        []string{},
		Nonterminals: []string{},
		Terminals:    []string{},
	}
	for _, rule := range g.Rules() {
		resp.Rules = append(resp.Rules, rule.String())
	}
	for _, nt := range g.Nonterminals() {
		resp.Nonterminals = append(resp.Nonterminals, string(nt))
	}
	for _, t := range g.Terminals() {
		resp.Terminals = append(resp.Terminals, string(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	tokens, status, err := s.readTokens(w, r)
	if err != nil {
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, recognizeResponse{
		Tokens:     tokens,
		InLanguage: s.parser.IsInLanguage(tokens),
	})
}

// handleParse answers with the best tree. A sentence outside the language is
// a successful response with parsed=false. ?charts=true adds both charts.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	tokens, status, err := s.readTokens(w, r)
	if err != nil {
		writeError(w, status, err)
		return
	}

	resp := parseResponse{Tokens: tokens}

	backpointers, probs := s.parser.Parse(tokens)

	if r.URL.Query().Get("charts") == "true" {
		var buf bytes.Buffer
		if err := format.EncodeCharts(&buf, backpointers, probs); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Charts = buf.Bytes()
	}

	if result, ok := s.parser.BestFromCharts(tokens, backpointers, probs); ok {
		var buf bytes.Buffer
		if err := format.NewJSONEncoder(&buf).Encode(result); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Parsed = true
		resp.Result = buf.Bytes()
	}

	writeJSON(w, http.StatusOK, resp)
}
