package ecs

// Each2 calls fn for every entity of ids that holds both A and B, in ids
// order. ids is normally a system's interest list; slots are resolved directly
// in the dense arrays. fn must not add or remove A or B.
func Each2[A, B any](ids []EntityID, sa *ComponentArray[A], sb *ComponentArray[B], fn func(EntityID, *A, *B)) {
	for _, id := range ids {
		a := sa.slot(id)
		if a < 0 {
			continue
		}
		if b := sb.slot(id); b >= 0 {
			fn(id, &sa.data[a], &sb.data[b])
		}
	}
}
