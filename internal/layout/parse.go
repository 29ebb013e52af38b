package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidLayout reports layout-analyzer JSON that does not match the
// expected shape. Fatal for the document run.
var ErrInvalidLayout = errors.New("invalid layout input")

type wireDocument struct {
	PDFInfo []wirePage `json:"pdf_info"`
}

type wirePage struct {
	PageIdx    *int        `json:"page_idx"`
	ParaBlocks []wireBlock `json:"para_blocks"`
}

type wireBlock struct {
	Type   string      `json:"type"`
	BBox   []float64   `json:"bbox"`
	Lines  []wireLine  `json:"lines"`
	Blocks []wireBlock `json:"blocks"`
	Level  int         `json:"level"`
}

type wireLine struct {
	Spans []wireSpan `json:"spans"`
}

type wireSpan struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ParseFile reads and parses a layout-analyzer JSON file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening layout file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes layout-analyzer JSON from r into a Document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading layout input: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes layout-analyzer JSON into a Document. The top level
// must carry a pdf_info page array and every page must carry page_idx;
// anything else fails with ErrInvalidLayout.
func ParseBytes(data []byte) (*Document, error) {
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if wire.PDFInfo == nil {
		return nil, fmt.Errorf("%w: missing pdf_info page array", ErrInvalidLayout)
	}
	if len(wire.PDFInfo) == 0 {
		return nil, fmt.Errorf("%w: pdf_info is empty", ErrInvalidLayout)
	}

	doc := &Document{
		TotalPages: len(wire.PDFInfo),
		Pages:      make([]Page, 0, len(wire.PDFInfo)),
	}
	for i, wp := range wire.PDFInfo {
		if wp.PageIdx == nil {
			return nil, fmt.Errorf("%w: page at position %d missing page_idx", ErrInvalidLayout, i)
		}
		if *wp.PageIdx < 0 {
			return nil, fmt.Errorf("%w: page at position %d has negative page_idx", ErrInvalidLayout, i)
		}
		page := Page{
			Index:  *wp.PageIdx,
			Number: *wp.PageIdx + 1,
		}
		for _, wb := range wp.ParaBlocks {
			page.Blocks = appendBlocks(page.Blocks, wb)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// appendBlocks flattens a wire block and its nested children in reading
// order, dropping anything with empty text.
func appendBlocks(dst []Block, wb wireBlock) []Block {
	if text := spanText(wb.Lines); text != "" {
		b := Block{
			Kind:  blockKind(wb.Type),
			Text:  text,
			Level: wb.Level,
		}
		if len(wb.BBox) == 4 {
			copy(b.BBox[:], wb.BBox)
		}
		dst = append(dst, b)
	}
	for _, child := range wb.Blocks {
		dst = appendBlocks(dst, child)
	}
	return dst
}

func spanText(lines []wireLine) string {
	var parts []string
	for _, line := range lines {
		var lb strings.Builder
		for _, span := range line.Spans {
			lb.WriteString(span.Content)
		}
		if s := strings.TrimSpace(lb.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func blockKind(s string) BlockKind {
	switch s {
	case "title":
		return BlockTitle
	case "table":
		return BlockTable
	case "figure":
		return BlockFigure
	default:
		return BlockText
	}
}
