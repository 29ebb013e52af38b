package detect

import (
	"math"

	"github.com/openfdd/dossier/internal/fdd"
	"github.com/openfdd/dossier/internal/layout"
)

// assigned is the chosen start page for one item before boundaries are
// derived.
type assigned struct {
	page   int
	conf   float64
	method Method
}

// phases are tried in strict priority order during sequential assignment.
var phases = []struct {
	method      Method
	preferTitle bool
}{
	{MethodTitle, false},
	{MethodFuzzy, true},
	{MethodPattern, false},
	{MethodCosine, false},
}

// assign walks items 0..24 in order, holding a running min_page so starts
// never go backward, then derives the 25 boundaries.
func (d *Detector) assign(totalPages int, pool []Candidate) []Boundary {
	if totalPages < 1 {
		totalPages = 1
	}
	if len(pool) == 0 {
		d.logger.Warn("no section candidates found, distributing evenly",
			"total_pages", totalPages)
		return d.boundaries(totalPages, evenDistribution(totalPages))
	}

	byItem := make(map[int][]Candidate)
	for _, c := range pool {
		if c.ItemNo >= 0 && c.ItemNo <= fdd.MaxItemNo {
			byItem[c.ItemNo] = append(byItem[c.ItemNo], c)
		}
	}

	var starts [fdd.ItemCount]assigned
	minPage := 1
	for no := 0; no <= fdd.MaxItemNo; no++ {
		if pick, ok := pickCandidate(byItem[no], minPage, totalPages); ok {
			starts[no] = assigned{page: pick.Page, conf: pick.Confidence, method: pick.Method}
			if no == 0 && starts[0].page != 1 {
				d.logger.Warn("forcing item 0 to start on page 1",
					"evidence_page", starts[0].page)
				starts[0].page = 1
			}
			// Only evidence advances min_page; an interpolated guess must
			// not block real evidence for a later item.
			minPage = starts[no].page
		} else {
			page := interpolate(no, minPage, totalPages)
			starts[no] = assigned{page: page, conf: interpolatedConfidence, method: MethodInterpolated}
			d.logger.Debug("interpolated section start", "item", no, "page", page)
		}
	}
	return d.boundaries(totalPages, starts)
}

// evidenceMethod reports whether a start page came from document evidence
// rather than positional guessing.
func evidenceMethod(m Method) bool {
	return m != MethodInterpolated && m != MethodFallback
}

// pickCandidate applies the four phases and stops at the first that yields
// a candidate inside [minPage, maxPage].
func pickCandidate(cands []Candidate, minPage, maxPage int) (Candidate, bool) {
	for _, phase := range phases {
		var best Candidate
		found := false
		for _, c := range cands {
			if c.Method != phase.method || c.Page < minPage || c.Page > maxPage {
				continue
			}
			if !found || betterCandidate(c, best, phase.preferTitle) {
				best, found = c, true
			}
		}
		if found {
			return best, true
		}
	}
	return Candidate{}, false
}

// betterCandidate orders within a phase: title-kind blocks first when the
// phase prefers them, then higher confidence, then earlier page.
func betterCandidate(c, best Candidate, preferTitle bool) bool {
	if preferTitle {
		cTitle := c.Kind == layout.BlockTitle
		bTitle := best.Kind == layout.BlockTitle
		if cTitle != bTitle {
			return cTitle
		}
	}
	if c.Confidence != best.Confidence {
		return c.Confidence > best.Confidence
	}
	return c.Page < best.Page
}

// interpolate places an item proportionally into the document, reserving a
// page per remaining item at the tail and never going below min_page.
func interpolate(no, minPage, totalPages int) int {
	page := int(math.Round(1 + float64(totalPages-1)*float64(no)/float64(fdd.MaxItemNo)))
	if hi := totalPages - (fdd.MaxItemNo - no); page > hi {
		page = hi
	}
	if page < minPage {
		page = minPage
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// evenDistribution is the last-resort layout when the pool is empty.
func evenDistribution(totalPages int) [fdd.ItemCount]assigned {
	var starts [fdd.ItemCount]assigned
	prev := 1
	for no := 0; no < fdd.ItemCount; no++ {
		page := int(math.Round(1 + float64(totalPages-1)*float64(no)/float64(fdd.MaxItemNo)))
		if page < prev {
			page = prev
		}
		if page > totalPages {
			page = totalPages
		}
		starts[no] = assigned{page: page, conf: fallbackConfidence, method: MethodFallback}
		prev = page
	}
	starts[0].page = 1
	return starts
}

// boundaries derives page ranges from the chosen starts: ordering repairs,
// the one-page overlap rule, minimum-length extensions, and final clamps.
func (d *Detector) boundaries(totalPages int, starts [fdd.ItemCount]assigned) []Boundary {
	start := make([]int, fdd.ItemCount)
	for no, a := range starts {
		p := a.page
		if p < 1 {
			p = 1
		}
		if p > totalPages {
			p = totalPages
		}
		start[no] = p
	}
	start[0] = 1
	// Interpolated guesses yield to later evidence before anything is
	// pushed forward.
	for no := fdd.ItemCount - 2; no >= 1; no-- {
		if start[no] > start[no+1] && !evidenceMethod(starts[no].method) {
			d.logger.Warn("pulled interpolated start back to later evidence",
				"item", no, "page", start[no], "ceiling", start[no+1])
			start[no] = start[no+1]
		}
	}
	for no := 1; no < fdd.ItemCount; no++ {
		if start[no] < start[no-1] {
			d.logger.Warn("repaired non-monotonic section start",
				"item", no, "page", start[no], "floor", start[no-1])
			start[no] = start[no-1]
		}
	}

	extended := d.applyMinLengths(totalPages, start, starts)

	out := make([]Boundary, fdd.ItemCount)
	for no := 0; no < fdd.ItemCount; no++ {
		end := totalPages
		if ext, ok := extended[no]; ok {
			end = ext
		} else if no < fdd.MaxItemNo {
			end = start[no+1]
		}
		if end > totalPages {
			end = totalPages
		}
		if end < start[no] {
			end = start[no]
		}
		conf := starts[no].conf
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		out[no] = Boundary{
			ItemNo:     no,
			ItemName:   fdd.Name(no),
			StartPage:  start[no],
			EndPage:    end,
			Confidence: conf,
			Method:     starts[no].method,
		}
	}
	return out
}

// applyMinLengths enforces per-item minimum page counts, working from item
// 24 backward. Extensions past the overlap rule are recorded so the final
// end pages honor them; when an extension would run past the document, the
// start moves earlier instead, up to (but not into) the previous item's
// start. An item placed by guesswork never pushes a detected section
// forward.
func (d *Detector) applyMinLengths(totalPages int, start []int, starts [fdd.ItemCount]assigned) map[int]int {
	extended := make(map[int]int)
	endOf := func(no int) int {
		if e, ok := extended[no]; ok {
			return e
		}
		if no < fdd.MaxItemNo {
			return start[no+1]
		}
		return totalPages
	}

	for no := fdd.MaxItemNo; no >= 0; no-- {
		min := fdd.MinPages(no)
		if min == 0 {
			continue
		}
		if endOf(no)-start[no]+1 >= min {
			continue
		}
		newEnd := start[no] + min - 1
		next := newEnd + 1
		if next > totalPages {
			next = totalPages
		}
		canExtend := newEnd <= totalPages
		if canExtend && !evidenceMethod(starts[no].method) && displacesEvidence(starts, start, no, next) {
			// A guessed start never pushes a detected section forward.
			canExtend = false
		}
		if canExtend {
			extended[no] = newEnd
			for j := no + 1; j < fdd.ItemCount; j++ {
				if start[j] >= next {
					break
				}
				start[j] = next
			}
			d.logger.Warn("extended section to minimum length",
				"item", no, "end_page", newEnd, "min_pages", min)
		} else {
			floor := 1
			if no > 0 {
				floor = start[no-1] + 1
			}
			newStart := endOf(no) - min + 1
			if newStart < floor {
				newStart = floor
			}
			if newStart < start[no] {
				d.logger.Warn("moved section start earlier to meet minimum length",
					"item", no, "start_page", newStart, "min_pages", min)
				start[no] = newStart
			}
		}
	}
	return extended
}

// displacesEvidence reports whether pushing starts up to next would move an
// evidence-backed start page.
func displacesEvidence(starts [fdd.ItemCount]assigned, start []int, no, next int) bool {
	for j := no + 1; j < fdd.ItemCount; j++ {
		if start[j] >= next {
			return false
		}
		if evidenceMethod(starts[j].method) {
			return true
		}
	}
	return false
}
