package leadclean

import "sort"

// sentinelDate ranks rows without a creation date after every real date.
const sentinelDate = "9999-12-31"

// rankKey orders cluster members: dated rows first, then earliest date, then
// earliest input position.
type rankKey struct {
	undated bool
	date    string
	index   int
}

func (k rankKey) less(o rankKey) bool {
	if k.undated != o.undated {
		return !k.undated
	}
	if k.date != o.date {
		return k.date < o.date
	}
	return k.index < o.index
}

func keyFor(rows []NormalizedRow, i int) rankKey {
	d := rows[i].CreatedAt
	// String comparison is chronological only for YYYY-MM-DD values.
	if !isCanonicalDate(d) {
		return rankKey{undated: true, date: sentinelDate, index: i}
	}
	return rankKey{date: d, index: i}
}

// SelectCanonical picks one representative per cluster and returns the chosen
// row indices in ascending input order.
func SelectCanonical(rows []NormalizedRow, clusters []Cluster) []int {
	chosen := make([]int, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		best := keyFor(rows, c.Members[0])
		for _, m := range c.Members[1:] {
			if k := keyFor(rows, m); k.less(best) {
				best = k
			}
		}
		chosen = append(chosen, best.index)
	}
	sort.Ints(chosen)
	return chosen
}
