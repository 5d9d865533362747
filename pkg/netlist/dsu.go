package netlist

// disjointSet is a union-find over dense integer ids with path
// compression and union by rank.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(capacity int) *disjointSet {
	return &disjointSet{
		parent: make([]int, 0, capacity),
		rank:   make([]int, 0, capacity),
	}
}

// add creates a singleton set and returns its id.
func (d *disjointSet) add() int {
	id := len(d.parent)
	d.parent = append(d.parent, id)
	d.rank = append(d.rank, 0)
	return id
}

func (d *disjointSet) find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[x] != root {
		d.parent[x], x = root, d.parent[x]
	}
	return root
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}
