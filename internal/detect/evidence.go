package detect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/openfdd/dossier/internal/layout"
)

var (
	// "Item N" anchored at block start, N trailed by punctuation,
	// whitespace, or end of text.
	titleItemRe = regexp.MustCompile(`(?i)^\s*item\s+(\d{1,2})(?:[\s:.\-]|$)`)

	// "Item N" anywhere in a line, for TOC listings and body references.
	patternItemRe = regexp.MustCompile(`(?i)\bitem\s+(\d{1,2})(?:[\s:.\-]|$)`)

	// TOC lines carry a trailing page reference after a dot leader or a
	// wide gap.
	tocPageRe = regexp.MustCompile(`(?:\.{2,}|…+|\s{2,})\s*(\d{1,4})\s*$`)

	coverRe    = regexp.MustCompile(`(?i)^\s*(franchise\s+disclosure\s+document|table\s+of\s+contents|cover\s+page)`)
	appendixRe = regexp.MustCompile(`(?i)^\s*(exhibits?\b|appendix\b|appendices\b|attachments?\b|state\s+addend)`)
)

// boilerplatePhrases reject common FDD body text that fuzzy matching would
// otherwise confuse with section headers.
var boilerplatePhrases = []string{
	"the franchisor is",
	"receipt (your copy)",
	"receipt (our copy)",
	"this disclosure document summarizes",
	"if you buy a franchise",
}

// headerPhrases mark text as header-shaped regardless of casing.
var headerPhrases = []string{
	"item",
	"exhibit",
	"appendix",
	"table of contents",
}

const (
	maxFuzzyTextLen  = 200
	shortHeaderWords = 6
)

// titleCandidates implements the title method: a title-kind block opening
// with an "Item N" pattern (N in 1..23), or matching the cover/appendix
// patterns for items 0 and 24.
func titleCandidates(block *layout.Block, page int) []Candidate {
	if block.Kind != layout.BlockTitle {
		return nil
	}
	var out []Candidate
	if m := titleItemRe.FindStringSubmatch(block.Text); m != nil {
		if no, err := strconv.Atoi(m[1]); err == nil && no >= 1 && no <= 23 {
			out = append(out, newCandidate(no, page, titleConfidence, MethodTitle, block))
		}
	}
	if coverRe.MatchString(block.Text) {
		out = append(out, newCandidate(0, page, titleConfidence, MethodTitle, block))
	}
	if appendixRe.MatchString(block.Text) {
		out = append(out, newCandidate(24, page, titleConfidence, MethodTitle, block))
	}
	return out
}

// patternCandidates implements the pattern method: every "Item N"
// occurrence in any block, one candidate per match. A TOC-style trailing
// page reference on the same line relocates the candidate to the listed
// page.
func patternCandidates(block *layout.Block, page, totalPages int) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(block.Text, "\n") {
		matches := patternItemRe.FindAllStringSubmatchIndex(line, -1)
		for _, m := range matches {
			no, err := strconv.Atoi(line[m[2]:m[3]])
			if err != nil || no < 0 || no > 24 {
				continue
			}
			candPage := page
			if ref := tocPageRe.FindStringSubmatch(line[m[3]:]); ref != nil {
				if p, err := strconv.Atoi(ref[1]); err == nil && p >= 1 && p <= totalPages {
					candPage = p
				}
			}
			out = append(out, newCandidate(no, candPage, patternConfidence, MethodPattern, block))
		}
	}
	return out
}

// headerShaped reports whether text plausibly is a section header: short,
// all-caps, title-cased, or carrying a known header phrase.
func headerShaped(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) <= shortHeaderWords {
		return true
	}
	if isAllCaps(trimmed) || isTitleCase(words) {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range headerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func containsBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func isAllCaps(s string) bool {
	sawLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			sawLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return sawLetter
}

// isTitleCase accepts headers where every significant word is capitalized;
// short connectives (of, and, the, ...) may stay lowercase.
func isTitleCase(words []string) bool {
	significant := 0
	for _, w := range words {
		runes := []rune(w)
		if len(runes) <= 3 || !unicode.IsLetter(runes[0]) {
			continue
		}
		significant++
		if !unicode.IsUpper(runes[0]) {
			return false
		}
	}
	return significant > 0
}
