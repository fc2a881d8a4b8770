package graph

// Traversal answers parent, ancestor and reachability queries over a fixed
// node and edge set. It never mutates either.
//
// Adjacency lists keep the order in which edges appear in the document, so
// results come back in queue (discovery) order. Callers must treat them as
// sets; the order is only useful for display.
type Traversal struct {
	nodes    map[string]struct{}
	incoming map[string][]string
	outgoing map[string][]string
}

// Classification splits the ancestors of a node into direct parents and
// transitive-only ancestors. The two sets are disjoint and their union is
// the full ancestor set.
type Classification struct {
	Direct     []string
	Transitive []string
}

// NewTraversal indexes the given nodes and edges.
// Duplicate edges collapse into one adjacency entry.
func NewTraversal(nodes []Node, edges []Edge) *Traversal {
	t := &Traversal{
		nodes:    make(map[string]struct{}, len(nodes)),
		incoming: make(map[string][]string),
		outgoing: make(map[string][]string),
	}

	for _, node := range nodes {
		t.nodes[node.ID] = struct{}{}
	}

	type edgeKey struct{ src, tgt string }
	seen := make(map[edgeKey]struct{}, len(edges))
	for _, edge := range edges {
		key := edgeKey{edge.Source, edge.Target}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		t.incoming[edge.Target] = append(t.incoming[edge.Target], edge.Source)
		t.outgoing[edge.Source] = append(t.outgoing[edge.Source], edge.Target)
	}

	return t
}

// HasNode reports whether a node with the id exists.
func (t *Traversal) HasNode(nodeID string) bool {
	_, ok := t.nodes[nodeID]
	return ok
}

// DirectParents returns the sources of every edge targeting nodeID.
// An unknown node has no parents.
func (t *Traversal) DirectParents(nodeID string) []string {
	return clone(t.incoming[nodeID])
}

// DirectDependents returns the targets of every edge leaving nodeID.
func (t *Traversal) DirectDependents(nodeID string) []string {
	return clone(t.outgoing[nodeID])
}

// AllAncestors walks backward from nodeID breadth-first and returns every
// node reachable through parent edges. The start node is never part of the
// result, even when a malformed graph loops back to it.
func (t *Traversal) AllAncestors(nodeID string) []string {
	var ancestors []string
	visited := map[string]bool{}
	queue := []string{nodeID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != nodeID {
			ancestors = append(ancestors, current)
		}
		queue = append(queue, t.incoming[current]...)
	}

	return ancestors
}

// HasPath reports whether targetID is reachable from sourceID by following
// edges forward. Every node reaches itself.
func (t *Traversal) HasPath(sourceID, targetID string) bool {
	visited := map[string]bool{}
	queue := []string{sourceID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == targetID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		queue = append(queue, t.outgoing[current]...)
	}

	return false
}

// ClassifyAncestors returns the direct parents of nodeID and the ancestors
// that are reachable only through longer paths.
func (t *Traversal) ClassifyAncestors(nodeID string) Classification {
	direct := t.DirectParents(nodeID)
	return Classification{
		Direct:     direct,
		Transitive: subtract(t.AllAncestors(nodeID), direct),
	}
}

// TransitiveOnly is ClassifyAncestors(nodeID).Transitive.
func (t *Traversal) TransitiveOnly(nodeID string) []string {
	return t.ClassifyAncestors(nodeID).Transitive
}

func subtract(all, exclude []string) []string {
	drop := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		drop[id] = struct{}{}
	}

	var out []string
	for _, id := range all {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func clone(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
