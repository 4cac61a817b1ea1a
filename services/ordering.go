package services

// Sequenced is a child row that carries a 1-based position within its parent.
// SOP steps and learning path items implement it.
type Sequenced interface {
	SequenceID() uint
	Sequence() int
	SetSequence(n int)
}

// NextSequence returns the position for a new child: the requested value as
// given, or count+1 when none was requested. Siblings are never shifted.
func NextSequence(count int64, requested *int) int {
	if requested != nil {
		return *requested
	}
	return int(count) + 1
}

// CloseGap decrements every sibling positioned after removed by exactly one
// and returns the siblings it changed. siblings must not contain the removed
// child.
func CloseGap[T Sequenced](siblings []T, removed int) []T {
	var changed []T
	for _, s := range siblings {
		if s.Sequence() > removed {
			s.SetSequence(s.Sequence() - 1)
			changed = append(changed, s)
		}
	}
	return changed
}

// Reorder assigns 1, 2, 3... to children in the order their ids appear in
// ids. Ids that match no child are skipped without consuming a position, and
// children missing from ids keep their value. It returns each changed child
// once, in first-seen order.
func Reorder[T Sequenced](children []T, ids []uint) []T {
	byID := make(map[uint]T, len(children))
	for _, c := range children {
		byID[c.SequenceID()] = c
	}

	var changed []T
	seen := make(map[uint]bool, len(ids))
	position := 1
	for _, id := range ids {
		child, ok := byID[id]
		if !ok {
			continue
		}
		child.SetSequence(position)
		position++
		if !seen[id] {
			seen[id] = true
			changed = append(changed, child)
		}
	}
	return changed
}
