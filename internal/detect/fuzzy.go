package detect

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
)

// fuzzyCandidates implements the fuzzy method: token-level partial-ratio
// similarity of header-shaped block text against each item's canonical name
// and variations, gated by the item's keyword signature.
func (d *Detector) fuzzyCandidates(block *layout.Block, page int) []Candidate {
	text := strings.TrimSpace(block.Text)
	if text == "" || len(text) > maxFuzzyTextLen {
		return nil
	}
	if containsBoilerplate(text) || !headerShaped(text) {
		return nil
	}
	lower := strings.ToLower(text)

	var out []Candidate
	for no := 0; no <= fdd.MaxItemNo; no++ {
		best := 0
		for _, target := range fdd.MatchTargets(no) {
			if score := fuzzy.PartialRatio(lower, target); score > best {
				best = score
			}
		}
		if best < d.cfg.MinFuzzyScore {
			continue
		}
		if !fdd.KeywordCheck(no, text) {
			continue
		}
		out = append(out, newCandidate(no, page, float64(best)/100, MethodFuzzy, block))
	}
	return out
}
