package fritz

import (
	"context"
	"reflect"

	"github.com/zoobzio/capitan"
)

// DiffValues compares two list snapshots position by position and returns
// patches that transform old into new when applied in emission order. A run
// of changed positions becomes a Delete followed by an Insert or InsertMany
// at the same index; a length change becomes one trailing InsertMany or
// Delete. Elements are matched with eq; nil falls back to reflect.DeepEqual.
//
// Positional diffing never emits moves: an element that changed places reads
// as changed content at both places. Use DiffByID when elements carry a
// stable identity and reordering should preserve them.
func DiffValues[T any](old, new []T, eq func(a, b T) bool) []Patch[T] {
	if eq == nil {
		eq = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}

	var patches []Patch[T]
	overlap := len(old)
	if len(new) < overlap {
		overlap = len(new)
	}

	for i := 0; i < overlap; {
		if eq(old[i], new[i]) {
			i++
			continue
		}
		run := i + 1
		for run < overlap && !eq(old[run], new[run]) {
			run++
		}
		patches = append(patches, Delete[T](i, run-i))
		if run-i == 1 {
			patches = append(patches, Insert(new[i], i))
		} else {
			patches = append(patches, InsertMany(append([]T(nil), new[i:run]...), i))
		}
		i = run
	}

	switch {
	case len(new) > len(old):
		patches = append(patches, InsertMany(append([]T(nil), new[overlap:]...), overlap))
	case len(old) > len(new):
		patches = append(patches, Delete[T](len(new), len(old)-len(new)))
	}
	return patches
}

// DiffByID compares two list snapshots by stable identity and returns
// patches that transform old into new when applied in emission order.
// Elements present in both snapshots are preserved: a displaced element
// becomes a Move, never a delete and re-insert, so per-element state bound
// to it (focus, mounted subtrees, derived stores) survives reordering.
//
// Identity is all that is compared: two elements with the same id count as
// the same element even when their other fields differ. Bind changing
// content through derived stores on the element instead. Ids should be
// unique within a snapshot; duplicates degrade matching but stay safe.
//
// Elements common to both snapshots that Myers' shortest-edit walk selects
// stay in place; everything else is moved, inserted or deleted around them.
// Cost is O((n+m)*d) for the edit distance d, so near-identical snapshots,
// the common case for UI lists, diff in near-linear time.
func DiffByID[T any, I comparable](old, new []T, idOf func(T) I) []Patch[T] {
	oldIDs := make([]I, len(old))
	for i, e := range old {
		oldIDs[i] = idOf(e)
	}
	newIDs := make([]I, len(new))
	for i, e := range new {
		newIDs[i] = idOf(e)
	}

	inOld := make(map[I]bool, len(oldIDs))
	for _, id := range oldIDs {
		inOld[id] = true
	}
	inNew := make(map[I]bool, len(newIDs))
	for _, id := range newIDs {
		inNew[id] = true
	}

	// Elements on a longest common subsequence keep their relative order and
	// act as fixed anchors; the emission loop moves everything else around
	// them.
	work := append([]I(nil), oldIDs...)
	anchor := lcsAnchors(oldIDs, newIDs)

	var patches []Patch[T]
	i := 0
	for i < len(newIDs) {
		want := newIDs[i]
		if i < len(work) && work[i] == want {
			i++
			continue
		}

		// A run of vanished elements blocking position i is deleted as one
		// patch.
		if i < len(work) && !inNew[work[i]] {
			run := 1
			for i+run < len(work) && !inNew[work[i+run]] {
				run++
			}
			patches = append(patches, Delete[T](i, run))
			work = append(work[:i], work[i+run:]...)
			anchor = append(anchor[:i], anchor[i+run:]...)
			continue
		}

		j := -1
		for k := i + 1; k < len(work); k++ {
			if work[k] == want {
				j = k
				break
			}
		}

		if j < 0 {
			// Brand-new elements; batch a consecutive run into one patch.
			runEnd := i + 1
			for runEnd < len(newIDs) && !inOld[newIDs[runEnd]] {
				runEnd++
			}
			if runEnd-i == 1 {
				patches = append(patches, Insert(new[i], i))
			} else {
				patches = append(patches, InsertMany(append([]T(nil), new[i:runEnd]...), i))
			}
			work = insertAt(work, i, newIDs[i:runEnd]...)
			anchor = insertAt(anchor, i, make([]bool, runEnd-i)...)
			i = runEnd
			continue
		}

		// The wanted element sits at j. When it is an anchor blocked by a
		// stray element, the stray moves to the back instead, keeping
		// anchors in place; otherwise the wanted element moves in.
		if anchor[j] && !anchor[i] {
			patches = append(patches, Move[T](i, len(work)-1))
			id, fl := work[i], anchor[i]
			work = append(append(work[:i], work[i+1:]...), id)
			anchor = append(append(anchor[:i], anchor[i+1:]...), fl)
			continue
		}

		patches = append(patches, Move[T](j, i))
		id, fl := work[j], anchor[j]
		work = insertAt(append(work[:j], work[j+1:]...), i, id)
		anchor = insertAt(append(anchor[:j], anchor[j+1:]...), i, fl)
		i++
	}

	// Whatever extends past the target is vanished; one trailing delete.
	if len(work) > len(newIDs) {
		patches = append(patches, Delete[T](len(newIDs), len(work)-len(newIDs)))
	}
	return patches
}

// Diffed turns a stream of list snapshots into a stream of patches, diffing
// each snapshot against the previous one position by position. The first
// snapshot is diffed against the empty list, so subscribing to a non-empty
// store yields its full content as insert patches. Feed the result to
// MountSeq.
func Diffed[T any](ctx context.Context, snapshots <-chan []T, eq func(a, b T) bool) <-chan Patch[T] {
	out := make(chan Patch[T])
	go func() {
		defer close(out)
		var prev []T
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				patches := DiffValues(prev, snap, eq)
				for _, p := range patches {
					select {
					case out <- p:
					case <-ctx.Done():
						return
					}
				}
				if len(patches) > 0 {
					capitan.Emit(ctx, DiffEmitted, KeyCount.Field(len(patches)))
				}
				prev = snap
			}
		}
	}()
	return out
}

// DiffedByID is Diffed with identity-aware diffing: reordered elements
// become moves, preserving whatever is bound to them downstream.
func DiffedByID[T any, I comparable](ctx context.Context, snapshots <-chan []T, idOf func(T) I) <-chan Patch[T] {
	out := make(chan Patch[T])
	go func() {
		defer close(out)
		var prev []T
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				patches := DiffByID(prev, snap, idOf)
				for _, p := range patches {
					select {
					case out <- p:
					case <-ctx.Done():
						return
					}
				}
				if len(patches) > 0 {
					capitan.Emit(ctx, DiffEmitted, KeyCount.Field(len(patches)))
				}
				prev = snap
			}
		}
	}()
	return out
}

// lcsAnchors reports which positions of a lie on a longest common
// subsequence of a and b, found with the greedy forward walk from Myers'
// "An O(ND) Difference Algorithm and Its Variations".
func lcsAnchors[I comparable](a, b []I) []bool {
	n, m := len(a), len(b)
	anchored := make([]bool, n)
	if n == 0 || m == 0 {
		return anchored
	}

	limit := n + m
	// v[limit+k] is the furthest x reached on diagonal k.
	v := make([]int, 2*limit+1)
	trace := make([][]int, 0, limit+1)
	found := -1

outer:
	for d := 0; d <= limit; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[limit+k-1] < v[limit+k+1]) {
				x = v[limit+k+1]
			} else {
				x = v[limit+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[limit+k] = x
			if x >= n && y >= m {
				found = d
				break outer
			}
		}
	}

	// Walk the edit path backwards; every diagonal step is a common element.
	x, y := n, m
	for d := found; d > 0; d-- {
		prev := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && prev[limit+k-1] < prev[limit+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := prev[limit+prevK]
		prevY := prevX - prevK
		for x > prevX && y > prevY {
			anchored[x-1] = true
			x--
			y--
		}
		x, y = prevX, prevY
	}
	for x > 0 && y > 0 {
		anchored[x-1] = true
		x--
		y--
	}
	return anchored
}

// insertAt returns s with elems spliced in at position at.
func insertAt[E any](s []E, at int, elems ...E) []E {
	out := make([]E, 0, len(s)+len(elems))
	out = append(out, s[:at]...)
	out = append(out, elems...)
	return append(out, s[at:]...)
}
