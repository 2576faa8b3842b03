package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pcfg/cky"
)

type jsonCell struct {
	Span    [2]int      `json:"span"`
	Entries []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Symbol      string  `json:"symbol"`
	LogProb     float64 `json:"logprob"`
	Backpointer any     `json:"backpointer"`
}

// EncodeCharts writes both charts as a JSON array of cells, bottom-up, with
// the entries of each cell in chart order.
func EncodeCharts(w io.Writer, backpointers *cky.BackpointerChart, probs *cky.ProbabilityChart) error {
	cells := []jsonCell{}
	for _, span := range backpointers.Spans() {
		cell := jsonCell{Span: [2]int{span.Start, span.End}, Entries: []jsonEntry{}}
		for _, a := range backpointers.Symbols(span.Start, span.End) {
			bp, _ := backpointers.Get(span.Start, span.End, a)
			lp, _ := probs.Get(span.Start, span.End, a)
			cell.Entries = append(cell.Entries, jsonEntry{
				Symbol:      string(a),
				LogProb:     lp,
				Backpointer: backpointerToJSON(bp),
			})
		}
		cells = append(cells, cell)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cells)
}

func backpointerToJSON(bp cky.Backpointer) any {
	switch bp := bp.(type) {
	case cky.Leaf:
		return bp.Token
	case cky.Split:
		return [][3]any{
			{string(bp.Left.Symbol), bp.Left.Start, bp.Left.End},
			{string(bp.Right.Symbol), bp.Right.Start, bp.Right.End},
		}
	}
	return nil
}
