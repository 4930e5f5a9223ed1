package fritz

import "fmt"

// PatchKind identifies the mutation a Patch describes.
type PatchKind int

const (
	// PatchInsert places one element at Index.
	PatchInsert PatchKind = iota
	// PatchInsertMany places an ordered batch of elements starting at Index.
	PatchInsertMany
	// PatchDelete removes Count elements starting at Start.
	PatchDelete
	// PatchMove relocates the element at From so it ends up at To.
	PatchMove
)

// String returns the kind's name for logs and metrics labels.
func (k PatchKind) String() string {
	switch k {
	case PatchInsert:
		return "insert"
	case PatchInsertMany:
		return "insert-many"
	case PatchDelete:
		return "delete"
	case PatchMove:
		return "move"
	default:
		return "unknown"
	}
}

// Patch describes one mutation of an ordered list. A differ emits patches in
// application order: every index refers to the list as it stands after the
// preceding patches of the same batch have been applied. Consumers must apply
// them strictly in order, against the list or against mounted tree children.
type Patch[T any] struct {
	Kind PatchKind

	// Element and Index describe a single insertion (PatchInsert).
	Element T
	// Elements holds the ordered batch of a PatchInsertMany; Index is the
	// position of its first element.
	Elements []T
	Index    int

	// Start and Count delimit a PatchDelete.
	Start int
	Count int

	// From and To describe a PatchMove. To is the index the element occupies
	// in the resulting list, after it has been taken out at From.
	From int
	To   int
}

// Insert builds a patch placing element at index.
func Insert[T any](element T, index int) Patch[T] {
	return Patch[T]{Kind: PatchInsert, Element: element, Index: index}
}

// InsertMany builds a patch placing elements, in order, starting at index.
func InsertMany[T any](elements []T, index int) Patch[T] {
	return Patch[T]{Kind: PatchInsertMany, Elements: elements, Index: index}
}

// Delete builds a patch removing count elements starting at start.
func Delete[T any](start, count int) Patch[T] {
	return Patch[T]{Kind: PatchDelete, Start: start, Count: count}
}

// Move builds a patch relocating the element at from to index to.
func Move[T any](from, to int) Patch[T] {
	return Patch[T]{Kind: PatchMove, From: from, To: to}
}

// ApplyTo applies the patch to a list snapshot and returns the result as a
// fresh slice; the input is never mutated. This is the reference semantics
// every other consumer reproduces: mount points perform the same operations
// on live tree children. Out-of-range indices are clamped to the list bounds
// rather than panicking, matching the clamping mount points do.
func (p Patch[T]) ApplyTo(list []T) []T {
	switch p.Kind {
	case PatchInsert:
		return splice(list, p.Index, p.Element)
	case PatchInsertMany:
		return splice(list, p.Index, p.Elements...)
	case PatchDelete:
		start, count := clampSpan(p.Start, p.Count, len(list))
		out := make([]T, 0, len(list)-count)
		out = append(out, list[:start]...)
		return append(out, list[start+count:]...)
	case PatchMove:
		if len(list) == 0 {
			return nil
		}
		from := clampIndex(p.From, len(list)-1)
		elem := list[from]
		rest := make([]T, 0, len(list)-1)
		rest = append(rest, list[:from]...)
		rest = append(rest, list[from+1:]...)
		return splice(rest, p.To, elem)
	default:
		return append([]T(nil), list...)
	}
}

// String renders the patch for logs.
func (p Patch[T]) String() string {
	switch p.Kind {
	case PatchInsert:
		return fmt.Sprintf("insert(1)@%d", p.Index)
	case PatchInsertMany:
		return fmt.Sprintf("insert(%d)@%d", len(p.Elements), p.Index)
	case PatchDelete:
		return fmt.Sprintf("delete(%d)@%d", p.Count, p.Start)
	case PatchMove:
		return fmt.Sprintf("move %d->%d", p.From, p.To)
	default:
		return "unknown"
	}
}

// splice returns a new slice with elems inserted at position at, clamped to
// the valid range [0, len(list)].
func splice[T any](list []T, at int, elems ...T) []T {
	at = clampIndex(at, len(list))
	out := make([]T, 0, len(list)+len(elems))
	out = append(out, list[:at]...)
	out = append(out, elems...)
	return append(out, list[at:]...)
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// clampSpan confines [start, start+count) to a list of length n.
func clampSpan(start, count, n int) (int, int) {
	if start < 0 {
		count += start
		start = 0
	}
	if start > n {
		start = n
	}
	if count < 0 {
		count = 0
	}
	if start+count > n {
		count = n - start
	}
	return start, count
}
