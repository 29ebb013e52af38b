package detect

import (
	"math"
	"sort"
	"strings"

	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
)

// vectorizer is a small TF-IDF index over the item-name corpus (canonical
// names plus variations, one document per target string). Block text is
// scored by cosine similarity against every target; an item's score is its
// best-matching target.
type vectorizer struct {
	minN, maxN int
	idf        map[string]float64
	targets    []targetVector
}

type targetVector struct {
	itemNo int
	vec    map[string]float64
}

func newVectorizer(minN, maxN int) *vectorizer {
	v := &vectorizer{minN: minN, maxN: maxN}

	type rawTarget struct {
		itemNo int
		terms  []string
	}
	var raw []rawTarget
	df := make(map[string]int)
	for no := 0; no <= fdd.MaxItemNo; no++ {
		for _, target := range fdd.MatchTargets(no) {
			terms := v.terms(target)
			if len(terms) == 0 {
				continue
			}
			raw = append(raw, rawTarget{itemNo: no, terms: terms})
			seen := make(map[string]bool, len(terms))
			for _, t := range terms {
				if !seen[t] {
					seen[t] = true
					df[t]++
				}
			}
		}
	}

	// Smoothed IDF so terms present in every target still contribute.
	n := float64(len(raw))
	v.idf = make(map[string]float64, len(df))
	for term, count := range df {
		v.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	v.targets = make([]targetVector, 0, len(raw))
	for _, rt := range raw {
		v.targets = append(v.targets, targetVector{
			itemNo: rt.itemNo,
			vec:    v.vector(rt.terms),
		})
	}
	return v
}

// similarities returns the best cosine similarity per item for the given
// text, omitting items that score zero.
func (v *vectorizer) similarities(text string) map[int]float64 {
	terms := v.terms(text)
	if len(terms) == 0 {
		return nil
	}
	query := v.vector(terms)
	best := make(map[int]float64)
	for _, tv := range v.targets {
		sim := dot(query, tv.vec)
		if sim > best[tv.itemNo] {
			best[tv.itemNo] = sim
		}
	}
	for no, sim := range best {
		if sim <= 0 {
			delete(best, no)
		}
	}
	return best
}

// terms tokenizes text and expands word n-grams of sizes minN..maxN.
func (v *vectorizer) terms(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	var out []string
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// vector builds the L2-normalized TF-IDF vector for a term list. Weights
// are accumulated in sorted term order so identical inputs always produce
// bit-identical floats.
func (v *vectorizer) vector(terms []string) map[string]float64 {
	tf := make(map[string]float64, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	keys := make([]string, 0, len(tf))
	for t := range tf {
		keys = append(keys, t)
	}
	sort.Strings(keys)
	var norm float64
	for _, t := range keys {
		idf, ok := v.idf[t]
		if !ok {
			// Unseen terms carry the maximum possible IDF.
			idf = math.Log(1+float64(len(v.targets))) + 1
		}
		w := tf[t] * idf
		tf[t] = w
		norm += w * w
	}
	if norm == 0 {
		return tf
	}
	norm = math.Sqrt(norm)
	for t := range tf {
		tf[t] /= norm
	}
	return tf
}

// dot of two L2-normalized sparse vectors is their cosine similarity.
// Shared terms are summed in sorted order, keeping the result stable
// across runs.
func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := make([]string, 0, len(a))
	for t := range a {
		if _, ok := b[t]; ok {
			shared = append(shared, t)
		}
	}
	sort.Strings(shared)
	var sum float64
	for _, t := range shared {
		sum += a[t] * b[t]
	}
	return sum
}

func tokenize(s string) []string {
	var tokens []string
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			continue
		}
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		tokens = append(tokens, sb.String())
	}
	return tokens
}

// cosineCandidates implements the cosine method: TF-IDF similarity of block
// text against the item-name corpus, gated by the keyword signature.
func (d *Detector) cosineCandidates(block *layout.Block, page int) []Candidate {
	text := strings.TrimSpace(block.Text)
	if text == "" || len(text) > maxFuzzyTextLen {
		return nil
	}
	if containsBoilerplate(text) {
		return nil
	}
	var out []Candidate
	for no, sim := range d.vec.similarities(text) {
		if sim < d.cfg.MinCosineSimilarity {
			continue
		}
		if !fdd.KeywordCheck(no, text) {
			continue
		}
		out = append(out, newCandidate(no, page, sim, MethodCosine, block))
	}
	return out
}
