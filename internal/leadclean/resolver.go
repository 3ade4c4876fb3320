package leadclean

// DisjointSet is a union-find structure over the indices 0..n-1 of one run.
type DisjointSet struct {
	parent []int
	size   []int
}

// NewDisjointSet returns n singleton sets.
func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

// Find returns the root of x, halving the path on the way up.
func (ds *DisjointSet) Find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// Union merges the sets of x and y, attaching the smaller tree under the
// larger one. It reports whether the sets were distinct.
func (ds *DisjointSet) Union(x, y int) bool {
	rx, ry := ds.Find(x), ds.Find(y)
	if rx == ry {
		return false
	}
	if ds.size[rx] < ds.size[ry] {
		rx, ry = ry, rx
	}
	ds.parent[ry] = rx
	ds.size[rx] += ds.size[ry]
	return true
}

// Size returns the number of elements in the set containing x.
func (ds *DisjointSet) Size(x int) int {
	return ds.size[ds.Find(x)]
}

// Resolve clusters rows that are linked, directly or through other rows, by a
// shared non-empty phone or email. Rows must be in input order: each row is
// joined to the first earlier row carrying the same key. Clusters are returned
// ordered by their first member.
func Resolve(rows []NormalizedRow) []Cluster {
	ds := NewDisjointSet(len(rows))
	firstPhone := make(map[string]int)
	firstEmail := make(map[string]int)

	for i, r := range rows {
		if r.Phone != "" {
			if j, ok := firstPhone[r.Phone]; ok {
				ds.Union(i, j)
			} else {
				firstPhone[r.Phone] = i
			}
		}
		if r.Email != "" {
			if k, ok := firstEmail[r.Email]; ok {
				ds.Union(i, k)
			} else {
				firstEmail[r.Email] = i
			}
		}
	}

	byRoot := make(map[int]int)
	var clusters []Cluster
	for i := range rows {
		root := ds.Find(i)
		pos, ok := byRoot[root]
		if !ok {
			pos = len(clusters)
			byRoot[root] = pos
			clusters = append(clusters, Cluster{Root: root})
		}
		clusters[pos].Members = append(clusters[pos].Members, i)
	}
	return clusters
}
