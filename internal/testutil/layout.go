package testutil

import (
	"encoding/json"
	"fmt"
)

// LayoutPage describes one page of a synthetic layout-analyzer document.
// Title and Text each become one block when non-empty.
type LayoutPage struct {
	Title string
	Text  string
}

// LayoutJSON builds layout-analyzer JSON for the given pages, in the wire
// shape the ingestor parses: a pdf_info page array with page_idx and nested
// para_blocks/lines/spans.
func LayoutJSON(t TestingT, pages ...LayoutPage) []byte {
	t.Helper()

	type span struct {
		Content string `json:"content"`
	}
	type line struct {
		Spans []span `json:"spans"`
	}
	type block struct {
		Type  string    `json:"type"`
		BBox  []float64 `json:"bbox"`
		Lines []line    `json:"lines"`
	}
	type page struct {
		PageIdx    int     `json:"page_idx"`
		ParaBlocks []block `json:"para_blocks"`
	}

	wire := struct {
		PDFInfo []page `json:"pdf_info"`
	}{}
	for i, p := range pages {
		wp := page{PageIdx: i, ParaBlocks: []block{}}
		if p.Title != "" {
			wp.ParaBlocks = append(wp.ParaBlocks, block{
				Type:  "title",
				BBox:  []float64{72, 60, 540, 100},
				Lines: []line{{Spans: []span{{Content: p.Title}}}},
			})
		}
		if p.Text != "" {
			wp.ParaBlocks = append(wp.ParaBlocks, block{
				Type:  "text",
				BBox:  []float64{72, 120, 540, 700},
				Lines: []line{{Spans: []span{{Content: p.Text}}}},
			})
		}
		wire.PDFInfo = append(wire.PDFInfo, wp)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		panic(fmt.Sprintf("marshaling layout fixture: %v", err))
	}
	return data
}
