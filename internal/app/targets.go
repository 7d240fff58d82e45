package app

import "sort"

// TargetSet holds the marker IDs nominated as targets.
// It only grows through Union and is emptied by Clear; there is no way to
// drop a single ID. Not safe for concurrent use on its own; State guards it.
type TargetSet struct {
	ids map[int]struct{}
}

// NewTargetSet creates an empty target set.
func NewTargetSet() *TargetSet {
	return &TargetSet{ids: make(map[int]struct{})}
}

// Union adds every ID in ids and reports how many were new.
func (t *TargetSet) Union(ids []int) int {
	added := 0
	for _, id := range ids {
		if _, ok := t.ids[id]; ok {
			continue
		}
		t.ids[id] = struct{}{}
		added++
	}
	return added
}

// Contains reports whether id is a target.
func (t *TargetSet) Contains(id int) bool {
	_, ok := t.ids[id]
	return ok
}

// Clear empties the set.
func (t *TargetSet) Clear() {
	clear(t.ids)
}

// Len returns the number of targets.
func (t *TargetSet) Len() int {
	return len(t.ids)
}

// Sorted returns the targets in ascending order.
func (t *TargetSet) Sorted() []int {
	return sortedKeys(t.ids)
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
