package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jwstegemann/fritz"
)

type todo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func todoID(td todo) string { return td.ID }

func renderTodo(td todo) fritz.Node {
	li := fritz.NewElement("li")
	li.SetAttr("data-id", td.ID)
	if td.Done {
		li.SetAttr("class", "done")
	}
	li.SetText(td.Text)
	return li
}

func writeTodos(t *testing.T, path string, todos []todo) {
	t.Helper()
	data, err := json.Marshal(todos)
	if err != nil {
		t.Fatalf("failed to marshal todos: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// startTodoStore wires a list store fed from a JSON file through a replace
// handler.
func startTodoStore(t *testing.T, ctx context.Context, path string) *fritz.RootStore[[]todo] {
	t.Helper()

	store := fritz.NewRootStore([]todo(nil)).Named("todos")
	if err := store.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	replace := fritz.Handle(store, "replace", func(_ context.Context, _, next []todo) ([]todo, error) {
		return next, nil
	})
	go func() {
		_ = fritz.Feed[[]todo](ctx, fritz.NewFileSource[[]todo](path), replace)
	}()
	return store
}

// startPipeline wires the full chain under test: a file source feeding a
// replace handler on a list store, diffed by identity into a mounted list
// element.
func startPipeline(t *testing.T, ctx context.Context, path string) (*fritz.RootStore[[]todo], *fritz.Element) {
	t.Helper()

	store := startTodoStore(t, ctx, path)
	list := fritz.NewElement("ul")
	patches := fritz.DiffedByID(ctx, store.Data(ctx), todoID)
	mount := fritz.MountSeq(list, patches, renderTodo)
	if err := mount.Start(ctx); err != nil {
		t.Fatalf("mount Start() error = %v", err)
	}
	return store, list
}

// waitFor polls a condition until it returns true or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
