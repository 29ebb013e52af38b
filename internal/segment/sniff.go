package segment

import (
	"bytes"
	"compress/zlib"
	"io"
	"strings"
)

// maxDecodedStream bounds how much of a single content stream is inflated
// during the text sniff.
const maxDecodedStream = 1 << 20

// sniffText pulls up to limit characters of visible text out of the PDF's
// content streams, in document order. pdfcpu has no text extraction, and a
// full extractor is not needed here: the report only has to tell a text
// layer from a pure scan, so reading the string operands of the text
// operators is enough.
func sniffText(pdf []byte, limit int) string {
	var sb strings.Builder
	for _, raw := range rawStreams(pdf) {
		content := inflate(raw)
		if !bytes.Contains(content, []byte("BT")) {
			continue
		}
		collectLiterals(content, &sb, limit)
		if sb.Len() >= limit {
			break
		}
	}
	sample := strings.Join(strings.Fields(sb.String()), " ")
	if len(sample) > limit {
		sample = sample[:limit]
	}
	return sample
}

// rawStreams returns the byte ranges between stream/endstream keywords.
func rawStreams(pdf []byte) [][]byte {
	var out [][]byte
	rest := pdf
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		seg := rest[i+len("stream"):]
		seg = bytes.TrimPrefix(seg, []byte("\r"))
		seg = bytes.TrimPrefix(seg, []byte("\n"))
		j := bytes.Index(seg, []byte("endstream"))
		if j < 0 {
			break
		}
		out = append(out, seg[:j])
		rest = seg[j+len("endstream"):]
	}
	return out
}

// inflate FlateDecodes a stream body, returning the input unchanged when it
// is not zlib data.
func inflate(data []byte) []byte {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecodedStream))
	if err != nil && len(out) == 0 {
		return data
	}
	return out
}

// collectLiterals appends the printable characters of every parenthesized
// string literal in a content stream. Escapes and nested parentheses follow
// the PDF string syntax.
func collectLiterals(content []byte, sb *strings.Builder, limit int) {
	for i := 0; i < len(content) && sb.Len() < limit; i++ {
		if content[i] != '(' {
			continue
		}
		depth := 1
		j := i + 1
		for ; j < len(content) && depth > 0; j++ {
			c := content[j]
			switch c {
			case '\\':
				if j+1 < len(content) {
					j++
					if e, skip := unescape(content, &j); !skip {
						writePrintable(sb, e)
					}
				}
			case '(':
				depth++
				writePrintable(sb, c)
			case ')':
				depth--
				if depth > 0 {
					writePrintable(sb, c)
				}
			default:
				writePrintable(sb, c)
			}
		}
		sb.WriteByte(' ')
		i = j - 1
	}
}

// unescape resolves a backslash escape at content[*j]. skip is true for
// escapes that carry no text (line continuations).
func unescape(content []byte, j *int) (b byte, skip bool) {
	c := content[*j]
	switch c {
	case 'n':
		return ' ', false
	case 'r', 't', 'f', 'b':
		return ' ', false
	case '\n', '\r':
		return 0, true
	case '(', ')', '\\':
		return c, false
	}
	if c >= '0' && c <= '7' {
		v := int(c - '0')
		for k := 0; k < 2 && *j+1 < len(content); k++ {
			n := content[*j+1]
			if n < '0' || n > '7' {
				break
			}
			v = v*8 + int(n-'0')
			*j++
		}
		return byte(v), false
	}
	return c, false
}

func writePrintable(sb *strings.Builder, c byte) {
	if c >= 0x20 && c < 0x7f {
		sb.WriteByte(c)
	} else {
		sb.WriteByte(' ')
	}
}
