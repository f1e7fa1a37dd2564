package refactor

// ChangeGraph tracks a work queue of changed identities plus a reverse
// dependency index, so marking one object changed can transitively
// re-queue everything that depends on it.
//
// Grounded on the original Rust graphs/change_graph.rs ChangeGraph<I>
// (next: LinkedHashSet<I>, dependents: HashMap<I, HashSet<I>>), adapted
// to Go generics since Go has no linked-hash-set in the standard
// library: insertion order is tracked with a slice, membership with a
// parallel set map.
type ChangeGraph[I comparable] struct {
	order      []I
	queued     map[I]bool
	dependents map[I]map[I]bool
}

func NewChangeGraph[I comparable]() *ChangeGraph[I] {
	return &ChangeGraph[I]{
		queued:     map[I]bool{},
		dependents: map[I]map[I]bool{},
	}
}

// Pop removes and returns the oldest still-queued item, in the order it
// was (re-)marked changed.
func (g *ChangeGraph[I]) Pop() (I, bool) {
	var zero I
	for len(g.order) > 0 {
		item := g.order[0]
		g.order = g.order[1:]
		if g.queued[item] {
			delete(g.queued, item)
			return item, true
		}
	}
	return zero, false
}

// MarkChange enqueues object and transitively every object that depends
// on it (direct or indirect), so a later pass revisits each exactly once
// even if changes cascade.
func (g *ChangeGraph[I]) MarkChange(object I) {
	if g.queued[object] {
		return
	}
	stack := []I{object}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if g.queued[item] {
			continue
		}
		g.queued[item] = true
		g.order = append(g.order, item)
		for dependent := range g.dependents[item] {
			if !g.queued[dependent] {
				stack = append(stack, dependent)
			}
		}
	}
}

// AddDependency records that dependent relies on dependency: a future
// MarkChange(dependency) will also re-queue dependent.
func (g *ChangeGraph[I]) AddDependency(dependent, dependency I) {
	set, ok := g.dependents[dependency]
	if !ok {
		set = map[I]bool{}
		g.dependents[dependency] = set
	}
	set[dependent] = true
}

func (g *ChangeGraph[I]) AddDependencies(dependent I, dependencies []I) {
	for _, d := range dependencies {
		g.AddDependency(dependent, d)
	}
}

func (g *ChangeGraph[I]) RemoveDependency(dependent, dependency I) {
	if set, ok := g.dependents[dependency]; ok {
		delete(set, dependent)
	}
}
