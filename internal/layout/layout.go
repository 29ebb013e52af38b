// Package layout models the output of the external layout analyzer: an
// ordered sequence of pages, each holding typed text blocks with bounding
// boxes. The document is immutable once parsed.
package layout

import "strings"

// BlockKind classifies a layout block.
type BlockKind string

const (
	BlockTitle  BlockKind = "title"
	BlockText   BlockKind = "text"
	BlockTable  BlockKind = "table"
	BlockFigure BlockKind = "figure"
)

// Block is one layout element. Text is the concatenation of the block's
// spans in reading order; blocks with empty text are dropped at parse time.
type Block struct {
	Kind  BlockKind
	BBox  [4]float64
	Text  string
	Level int
}

// Page holds the blocks of one page. Index is 0-based (as in the wire
// format); Number is the 1-based page number used everywhere else.
type Page struct {
	Index  int
	Number int
	Blocks []Block
}

// Document is the parsed layout of one PDF.
type Document struct {
	TotalPages int
	Pages      []Page
}

// Page returns the page with the given 1-based number.
func (d *Document) Page(number int) (*Page, bool) {
	if number < 1 || number > len(d.Pages) {
		return nil, false
	}
	return &d.Pages[number-1], true
}

// PageText returns all block text on the given 1-based page, newline
// separated.
func (d *Document) PageText(number int) string {
	p, ok := d.Page(number)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}

// Text returns the concatenated text of the inclusive 1-based page range,
// clamped to the document. Used to assemble section content for extraction.
func (d *Document) Text(startPage, endPage int) string {
	if startPage < 1 {
		startPage = 1
	}
	if endPage > len(d.Pages) {
		endPage = len(d.Pages)
	}
	if startPage > endPage {
		return ""
	}
	var sb strings.Builder
	for n := startPage; n <= endPage; n++ {
		t := d.PageText(n)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}
