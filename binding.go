package fritz

import "context"

// BindText keeps el's text in sync with a stream of strings. The goroutine
// ends when ctx is canceled or the stream closes; the last text stays.
func BindText(ctx context.Context, el *Element, text <-chan string) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-text:
				if !ok {
					return
				}
				el.SetText(v)
			}
		}
	}()
}

// BindAttr keeps one attribute of el in sync with a stream of strings.
func BindAttr(ctx context.Context, el *Element, name string, values <-chan string) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-values:
				if !ok {
					return
				}
				el.SetAttr(name, v)
			}
		}
	}()
}

// BindValue mounts a rendering of every value a store commits at one
// position under target. Shorthand for MountOne over the store's data
// stream.
func BindValue[T any](ctx context.Context, target Node, s Store[T], render func(T) Node) (*SingleMount[T], error) {
	m := MountOne(target, s.Data(ctx), render)
	return m, m.Start(ctx)
}

// BindChildren mounts a list store's elements as children of target,
// updating them with positional diffing: an element that changes position
// reads as changed content. Use BindChildrenByID for keyed lists.
func BindChildren[T any](ctx context.Context, target Node, s Store[[]T], render func(T) Node) (*PatchMount[T], error) {
	m := MountSeq(target, Diffed(ctx, s.Data(ctx), nil), render)
	return m, m.Start(ctx)
}

// BindChildrenByID mounts a list store's elements as children of target with
// identity-aware diffing: reordering moves the rendered nodes instead of
// recreating them, so node state (focus, scroll, bound subscriptions)
// follows the element.
func BindChildrenByID[T any, I comparable](ctx context.Context, target Node, s Store[[]T], idOf func(T) I, render func(T) Node) (*PatchMount[T], error) {
	m := MountSeq(target, DiffedByID(ctx, s.Data(ctx), idOf), render)
	return m, m.Start(ctx)
}
