package metadata

import (
	"sort"

	"github.com/fwojciec/docsite"
)

// GroupCount is the number of records in a group.
type GroupCount struct {
	Group string
	Count int
}

// Summary describes an extraction result for the operator.
type Summary struct {
	Total   int
	Groups  []GroupCount          // first-appearance order
	Popular []*docsite.PageRecord // ascending popularity order
}

// Summarize counts records per group and lists popular pages.
func Summarize(records []*docsite.PageRecord) Summary {
	s := Summary{Total: len(records)}
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Group]
		if !ok {
			i = len(s.Groups)
			index[r.Group] = i
			s.Groups = append(s.Groups, GroupCount{Group: r.Group})
		}
		s.Groups[i].Count++

		if r.Popular() {
			s.Popular = append(s.Popular, r)
		}
	}
	sort.SliceStable(s.Popular, func(i, j int) bool {
		return s.Popular[i].PopularityOrder() < s.Popular[j].PopularityOrder()
	})
	return s
}
