package memtier

import "container/list"

// index is the LRU index proper: a doubly linked list for recency order
// paired with a hash map for O(1) lookup. It carries no policy and no
// locking of its own — callers (the Tier) serialize access.
//
// This generalizes the pairing the teacher's Cache used directly
// (map[string]*list.Element next to a *list.List) into a standalone type
// so the tier can reason about eviction without also owning list bookkeeping.
type index struct {
	ll    *list.List
	nodes map[string]*list.Element
}

func newIndex() *index {
	return &index{
		ll:    list.New(),
		nodes: make(map[string]*list.Element),
	}
}

func (ix *index) len() int {
	return ix.ll.Len()
}

func (ix *index) get(key string) (*list.Element, bool) {
	el, ok := ix.nodes[key]
	return el, ok
}

// insertFront adds a brand-new entry at the most-recently-used end.
func (ix *index) insertFront(e *entry) *list.Element {
	el := ix.ll.PushFront(e)
	ix.nodes[e.key] = el
	return el
}

func (ix *index) moveToFront(el *list.Element) {
	ix.ll.MoveToFront(el)
}

// removeNode detaches el from both the list and the map and returns its entry.
func (ix *index) removeNode(el *list.Element) *entry {
	ix.ll.Remove(el)
	e := el.Value.(*entry)
	delete(ix.nodes, e.key)
	return e
}

// back returns the least-recently-used element, or nil if the index is empty.
func (ix *index) back() *list.Element {
	return ix.ll.Back()
}

// popTail removes and returns the least-recently-used entry, or nil.
func (ix *index) popTail() *entry {
	el := ix.ll.Back()
	if el == nil {
		return nil
	}
	return ix.removeNode(el)
}
