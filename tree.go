package fritz

import (
	"sort"
	"strings"
	"sync"
)

// Node is the minimal contract a mount point needs from a rendering target:
// ordered children that can be spliced, moved and searched. Each method must
// be atomic with respect to the others, so concurrent mounts on the same
// parent interleave at operation granularity and never observe torn state.
//
// Element implements Node for in-memory trees; adapters for real UI
// backends implement the same contract.
type Node interface {
	// Len returns the number of children.
	Len() int

	// Insert places children, in order, so the first lands at index at.
	// at is clamped to [0, Len].
	Insert(at int, children ...Node)

	// Remove deletes up to count children starting at start, clamped to
	// the current bounds, and returns how many were actually removed.
	Remove(start, count int) int

	// Move relocates the child at from so it ends up at index to, with
	// both indices clamped. Implementations must keep the child's
	// identity: the same child object remains in the tree.
	Move(from, to int)

	// Replace swaps the child at index at for a new one in a single
	// atomic step. No observer sees the position empty or doubly
	// occupied.
	Replace(at int, child Node)

	// Index returns the position of child, or -1 when it is not a direct
	// child.
	Index(child Node) int
}

// Element is an in-memory tree node with a tag, attributes, text and
// children. All methods are safe for concurrent use; each mutation takes
// effect atomically.
type Element struct {
	mu       sync.RWMutex
	tag      string
	attrs    map[string]string
	text     string
	children []Node
}

var _ Node = (*Element)(nil)

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{tag: tag}
}

// Tag returns the element's tag.
func (e *Element) Tag() string {
	return e.tag
}

// SetText sets the element's own text content.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Text returns the element's own text content.
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
}

// Attr returns an attribute's value and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Len returns the number of children.
func (e *Element) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.children)
}

// Child returns the child at index i, or nil when out of range.
func (e *Element) Child(i int) Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns a snapshot of the current children.
func (e *Element) Children() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Node(nil), e.children...)
}

// Insert places children so the first lands at index at, clamped to the
// current bounds.
func (e *Element) Insert(at int, children ...Node) {
	if len(children) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	at = clampIndex(at, len(e.children))
	e.children = insertAt(e.children, at, children...)
}

// Remove deletes up to count children starting at start and returns how many
// were removed.
func (e *Element) Remove(start, count int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, count = clampSpan(start, count, len(e.children))
	if count == 0 {
		return 0
	}
	e.children = append(e.children[:start], e.children[start+count:]...)
	return count
}

// Move relocates the child at from so it ends up at index to. The child
// object itself is preserved.
func (e *Element) Move(from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.children) == 0 {
		return
	}
	from = clampIndex(from, len(e.children)-1)
	child := e.children[from]
	rest := append(e.children[:from], e.children[from+1:]...)
	e.children = insertAt(rest, clampIndex(to, len(rest)), child)
}

// Replace swaps the child at index at for a new one atomically.
func (e *Element) Replace(at int, child Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if at < 0 || at >= len(e.children) {
		return
	}
	e.children[at] = child
}

// Index returns the position of child among the element's children, or -1.
func (e *Element) Index(child Node) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// String renders the element and its subtree as an HTML-like string, for
// debugging and test assertions.
func (e *Element) String() string {
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e *Element) render(b *strings.Builder) {
	e.mu.RLock()
	tag := e.tag
	text := e.text
	attrs := make([]string, 0, len(e.attrs))
	for k, v := range e.attrs {
		attrs = append(attrs, k+`="`+v+`"`)
	}
	children := append([]Node(nil), e.children...)
	e.mu.RUnlock()

	sort.Strings(attrs)
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteByte('>')
	b.WriteString(text)
	for _, c := range children {
		if el, ok := c.(*Element); ok {
			el.render(b)
			continue
		}
		b.WriteString("<node>")
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}
