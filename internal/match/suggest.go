package match

import "sort"

// DefaultMinSimilarity is the lowest name similarity worth suggesting.
const DefaultMinSimilarity = 0.5

// Suggestion is a name ranked by its similarity to a wanted name.
type Suggestion struct {
	Name  string
	Score float64
}

// SuggestionList is a list of suggestions with ranking functionality.
type SuggestionList []Suggestion

// Rank scores every name against wanted. The result is sorted by score
// descending, then by name.
func Rank(wanted string, names []string) SuggestionList {
	list := make(SuggestionList, 0, len(names))

	for _, n := range names {
		list = append(list, Suggestion{Name: n, Score: NameSimilarity(wanted, n)})
	}

	sort.Sort(list)

	return list
}

// Suggest returns up to limit names similar to wanted, best first.
func Suggest(wanted string, names []string, limit int) []string {
	var out []string

	for _, s := range Rank(wanted, names).AboveThreshold(DefaultMinSimilarity).Top(limit) {
		out = append(out, s.Name)
	}

	return out
}

// Len implements sort.Interface.
func (c SuggestionList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c SuggestionList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
func (c SuggestionList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Name < c[j].Name
}

// Top returns the top n suggestions.
func (c SuggestionList) Top(n int) SuggestionList {
	if n < 0 || n >= len(c) {
		return c
	}

	return c[:n]
}

// AboveThreshold returns suggestions scoring at least threshold.
func (c SuggestionList) AboveThreshold(threshold float64) SuggestionList {
	var result SuggestionList

	for _, s := range c {
		if s.Score >= threshold {
			result = append(result, s)
		}
	}

	return result
}
