package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
)

const dogsGrammar = `
S ; 1.0
S -> NP VP ; 1.0
NP -> dogs ; 0.5
NP -> cats ; 0.5
VP -> bark ; 1.0
`

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	g, err := grammar.Read("dogs.pcfg", strings.NewReader(dogsGrammar))
	require.NoError(t, err)
	return NewServer(cky.NewParser(g), opts...)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestGrammar(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/grammar", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp grammarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S", resp.Start)
	assert.Len(t, resp.Rules, 4)
	assert.Contains(t, resp.Rules, "S -> NP VP ; 1")
	assert.ElementsMatch(t, []string{"S", "NP", "VP"}, resp.Nonterminals)
	assert.ElementsMatch(t, []string{"dogs", "cats", "bark"}, resp.Terminals)
}

func TestRecognize(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/recognize", `{"sentence":"dogs bark"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":["dogs","bark"],"in_language":true}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/recognize", `{"tokens":["bark","dogs"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":["bark","dogs"],"in_language":false}`, rec.Body.String())
}

func TestRecognize_BadRequests(t *testing.T) {
	s := newTestServer(t, WithMaxTokens(2))

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"invalid json", `{`, http.StatusBadRequest, "invalid JSON"},
		{"empty", `{}`, http.StatusBadRequest, "must provide sentence or tokens"},
		{"untokenizable", `{"sentence":"dogs * bark"}`, http.StatusBadRequest, "tokenize"},
		{"too long", `{"tokens":["dogs","bark","bark"]}`, http.StatusRequestEntityTooLarge, "limit is 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/recognize", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/parse", `{"sentence":"cats bark"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Parsed bool `json:"parsed"`
		Result struct {
			LogProb     float64 `json:"logprob"`
			Probability float64 `json:"probability"`
			Tree        struct {
				Symbol string `json:"symbol"`
			} `json:"tree"`
		} `json:"result"`
		Charts json.RawMessage `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Parsed)
	assert.Equal(t, -1.0, resp.Result.LogProb)
	assert.Equal(t, 0.5, resp.Result.Probability)
	assert.Equal(t, "S", resp.Result.Tree.Symbol)
	assert.Empty(t, resp.Charts)
}

func TestParse_NotInLanguage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/parse", `{"tokens":["bark"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":["bark"],"parsed":false}`, rec.Body.String())
}

func TestParse_WithCharts(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/parse?charts=true", `{"tokens":["dogs","bark"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Parsed bool `json:"parsed"`
		Result struct {
			LogProb float64 `json:"logprob"`
			Tree    struct {
				Symbol string `json:"symbol"`
				Span   [2]int `json:"span"`
			} `json:"tree"`
		} `json:"result"`
		Charts []struct {
			Span    [2]int `json:"span"`
			Entries []struct {
				Symbol  string  `json:"symbol"`
				LogProb float64 `json:"logprob"`
			} `json:"entries"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Charts, 3)
	assert.Equal(t, [2]int{0, 2}, resp.Charts[2].Span)

	assert.True(t, resp.Parsed)
	assert.Equal(t, "S", resp.Result.Tree.Symbol)
	assert.Equal(t, [2]int{0, 2}, resp.Result.Tree.Span)
	require.Len(t, resp.Charts[2].Entries, 1)
	assert.Equal(t, resp.Charts[2].Entries[0].LogProb, resp.Result.LogProb)
}

func TestParse_WithChartsNotInLanguage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/parse?charts=true", `{"tokens":["bark","dogs"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Parsed bool              `json:"parsed"`
		Result json.RawMessage   `json:"result"`
		Charts []json.RawMessage `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Parsed)
	assert.Empty(t, resp.Result)
	assert.Len(t, resp.Charts, 3)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, WithMaxBodyBytes(32))

	body := `{"sentence":"` + strings.Repeat("dogs ", 20) + `bark"}`
	rec := do(t, s, http.MethodPost, "/parse", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "exceeds 32 bytes")

	rec = do(t, s, http.MethodPost, "/parse", `{"tokens":["dogs","bark"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/parse", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := RequestID(Recovery(commonlog.GetLogger("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestLoggerCapturesStatus(t *testing.T) {
	var seen int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	})
	h := Logger(commonlog.GetLogger("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		seen = w.(*statusWriter).status
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, seen)
}
