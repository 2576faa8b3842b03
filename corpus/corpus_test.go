package corpus

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dogsGrammar = `
S ; 1.0
S -> NP VP ; 1.0
NP -> dogs ; 0.5
NP -> cats ; 0.5
VP -> bark ; 1.0
`

func newParser(t *testing.T) *cky.Parser {
	t.Helper()
	g, err := grammar.Read("dogs.pcfg", strings.NewReader(dogsGrammar))
	require.NoError(t, err)
	return cky.NewParser(g)
}

func TestRead(t *testing.T) {
	sentences, err := Read(strings.NewReader("dogs bark\n\n# comment\ncats bark .\n"))
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	assert.Equal(t, 1, sentences[0].Line)
	assert.Equal(t, []string{"dogs", "bark"}, sentences[0].Tokens)
	assert.Equal(t, 4, sentences[1].Line)
	assert.Equal(t, []string{"cats", "bark", "."}, sentences[1].Tokens)
}

func TestRead_BadLine(t *testing.T) {
	_, err := Read(strings.NewReader("dogs bark\ndogs * bark\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_KeepsOrder(t *testing.T) {
	p := newParser(t)
	sentences, err := Read(strings.NewReader("dogs bark\nbark dogs\ncats bark\n\ndogs\n"))
	require.NoError(t, err)

	outcomes, err := Parse(context.Background(), p, sentences, 3)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.True(t, outcomes[0].Parsed)
	assert.Equal(t, "(S (NP dogs) (VP bark))", outcomes[0].Result.Tree.String())
	assert.False(t, outcomes[1].Parsed)
	assert.Nil(t, outcomes[1].Result)
	assert.True(t, outcomes[2].Parsed)
	assert.Equal(t, "cats bark", outcomes[2].Sentence.Text)
	assert.False(t, outcomes[3].Parsed)

	summary := Summarize(outcomes)
	assert.Equal(t, Summary{Sentences: 4, Parsed: 2}, summary)
	assert.Equal(t, 0.5, summary.Coverage())
}

func TestParse_Empty(t *testing.T) {
	outcomes, err := Parse(context.Background(), newParser(t), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, 0.0, Summarize(outcomes).Coverage())
}

type countingParser struct {
	mu      sync.Mutex
	active  int
	peak    int
	calls   atomic.Int32
	wrapped Parser
}

func (c *countingParser) Best(tokens []string) (*cky.Result, bool) {
	c.calls.Add(1)
	c.mu.Lock()
	c.active++
	if c.active > c.peak {
		c.peak = c.active
	}
	c.mu.Unlock()

	time.Sleep(time.Millisecond)
	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()
	return c.wrapped.Best(tokens)
}

func TestParse_RespectsWorkerLimit(t *testing.T) {
	cp := &countingParser{wrapped: newParser(t)}

	sentences := make([]Sentence, 20)
	for i := range sentences {
		sentences[i] = Sentence{Line: i + 1, Tokens: []string{"dogs", "bark"}}
	}

	outcomes, err := Parse(context.Background(), cp, sentences, 2)
	require.NoError(t, err)
	assert.Len(t, outcomes, 20)
	assert.Equal(t, int32(20), cp.calls.Load())
	assert.LessOrEqual(t, cp.peak, 2)
	for i, o := range outcomes {
		assert.Equal(t, i+1, o.Sentence.Line)
		assert.True(t, o.Parsed)
	}
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sentences := []Sentence{{Tokens: []string{"dogs", "bark"}}}
	_, err := Parse(ctx, newParser(t), sentences, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
