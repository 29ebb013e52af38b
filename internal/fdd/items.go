// Package fdd holds the fixed reference data for Franchise Disclosure
// Documents: the 25 logical sections (cover, items 1-23, appendix), their
// canonical names and accepted variations, keyword signatures used to
// validate detection candidates, minimum page counts, and extraction
// complexity tiers.
package fdd

import "strings"

// Complexity buckets items by how hard their extraction is, which drives
// model routing.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

const (
	// ItemCount is the number of logical sections in an FDD: the cover (0),
	// the 23 regulated items, and the appendix (24).
	ItemCount = 25

	// MaxItemNo is the highest item number.
	MaxItemNo = 24
)

// Item describes one logical FDD section.
type Item struct {
	No         int
	Name       string
	Variations []string

	// RequiredKeywords: a detection candidate for this item must contain at
	// least one (case-insensitive). Empty means no requirement.
	RequiredKeywords []string

	// DisqualifyingKeywords: a candidate containing any of these is rejected.
	DisqualifyingKeywords []string

	// MinPages is the minimum section length enforced after assignment.
	// Zero means no minimum.
	MinPages int

	Complexity Complexity
}

// DefaultTargetItems are the sections extracted when no explicit list is
// configured.
var DefaultTargetItems = []int{5, 6, 7, 19, 20, 21}

var items = [ItemCount]Item{
	{
		No:         0,
		Name:       "Cover and Table of Contents",
		Variations: []string{"franchise disclosure document", "table of contents", "cover page"},
	},
	{
		No:         1,
		Name:       "The Franchisor and Any Parents, Predecessors, and Affiliates",
		Variations: []string{"the franchisor, its predecessors, and affiliates", "the franchisor and any parents, predecessors and affiliates"},
	},
	{No: 2, Name: "Business Experience"},
	{No: 3, Name: "Litigation", Variations: []string{"litigation history"}},
	{No: 4, Name: "Bankruptcy"},
	{
		No:               5,
		Name:             "Initial Fees",
		Variations:       []string{"initial franchise fee", "initial fee"},
		RequiredKeywords: []string{"initial", "fee", "franchise fee"},
		DisqualifyingKeywords: []string{
			"adjusted gross revenue",
			"royalty fee",
		},
		Complexity: ComplexitySimple,
	},
	{
		No:               6,
		Name:             "Other Fees",
		Variations:       []string{"other fees and expenses"},
		RequiredKeywords: []string{"other", "fee", "ongoing", "royalty"},
		Complexity:       ComplexitySimple,
	},
	{
		No:               7,
		Name:             "Estimated Initial Investment",
		Variations:       []string{"your estimated initial investment"},
		RequiredKeywords: []string{"investment", "initial", "estimated"},
		MinPages:         2,
		Complexity:       ComplexitySimple,
	},
	{
		No:               8,
		Name:             "Restrictions on Sources of Products and Services",
		RequiredKeywords: []string{"restrictions", "sources", "products", "services"},
		DisqualifyingKeywords: []string{
			"financial statements",
			"audited",
			"balance sheet",
		},
	},
	{No: 9, Name: "Franchisee's Obligations", Variations: []string{"franchisee obligations"}},
	{No: 10, Name: "Financing"},
	{
		No:         11,
		Name:       "Franchisor's Assistance, Advertising, Computer Systems, and Training",
		Variations: []string{"franchisor's obligations", "franchisor assistance"},
		MinPages:   3,
	},
	{No: 12, Name: "Territory"},
	{No: 13, Name: "Trademarks"},
	{No: 14, Name: "Patents, Copyrights, and Proprietary Information"},
	{
		No:         15,
		Name:       "Obligation to Participate in the Actual Operation of the Franchise Business",
		Variations: []string{"obligation to participate"},
	},
	{No: 16, Name: "Restrictions on What the Franchisee May Sell"},
	{
		No:         17,
		Name:       "Renewal, Termination, Transfer, and Dispute Resolution",
		Variations: []string{"renewal, termination, transfer and dispute resolution"},
		MinPages:   3,
	},
	{No: 18, Name: "Public Figures"},
	{
		No:               19,
		Name:             "Financial Performance Representations",
		Variations:       []string{"earnings claims", "financial performance"},
		RequiredKeywords: []string{"financial", "performance", "representation", "earnings"},
		MinPages:         2,
		Complexity:       ComplexityComplex,
	},
	{
		No:         20,
		Name:       "Outlets and Franchisee Information",
		Variations: []string{"list of outlets", "outlets and franchise information"},
		MinPages:   3,
	},
	{
		No:               21,
		Name:             "Financial Statements",
		Variations:       []string{"audited financial statements"},
		RequiredKeywords: []string{"financial", "statement", "audit"},
		MinPages:         2,
		Complexity:       ComplexityComplex,
	},
	{No: 22, Name: "Contracts"},
	{No: 23, Name: "Receipts", Variations: []string{"receipt"}},
	{
		No:         24,
		Name:       "Exhibits and Appendices",
		Variations: []string{"exhibits", "appendix", "attachments", "state addenda"},
	},
}

// Lookup returns the item for the given number.
func Lookup(no int) (Item, bool) {
	if no < 0 || no > MaxItemNo {
		return Item{}, false
	}
	return items[no], true
}

// Name returns the canonical name for an item number, or "" if out of range.
func Name(no int) string {
	it, ok := Lookup(no)
	if !ok {
		return ""
	}
	return it.Name
}

// Items returns all 25 items in order.
func Items() []Item {
	out := make([]Item, ItemCount)
	copy(out, items[:])
	return out
}

// MinPages returns the minimum page count for an item, zero if none.
func MinPages(no int) int {
	it, ok := Lookup(no)
	if !ok {
		return 0
	}
	return it.MinPages
}

// ComplexityOf returns the routing tier for an item. Items without an
// explicit tier are medium.
func ComplexityOf(no int) Complexity {
	it, ok := Lookup(no)
	if !ok || it.Complexity == "" {
		return ComplexityMedium
	}
	return it.Complexity
}

// MatchTargets returns the lowercased canonical name plus variations for an
// item, the strings fuzzy and cosine evidence match against.
func MatchTargets(no int) []string {
	it, ok := Lookup(no)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(it.Variations)+1)
	out = append(out, strings.ToLower(it.Name))
	for _, v := range it.Variations {
		out = append(out, strings.ToLower(v))
	}
	return out
}

// KeywordCheck reports whether text satisfies the item's keyword signature:
// it must contain at least one required keyword (when any are defined) and
// none of the disqualifying ones. Matching is case-insensitive.
func KeywordCheck(no int, text string) bool {
	it, ok := Lookup(no)
	if !ok {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range it.DisqualifyingKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if len(it.RequiredKeywords) == 0 {
		return true
	}
	for _, kw := range it.RequiredKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
