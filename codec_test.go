package fritz

import "testing"

type codecSnapshot struct {
	Title string   `json:"title" yaml:"title"`
	Items []string `json:"items" yaml:"items"`
	Count int      `json:"count" yaml:"count"`
}

func TestJSONCodec_Unmarshal(t *testing.T) {
	codec := JSONCodec{}

	data := []byte(`{"title": "inbox", "items": ["milk", "bread"], "count": 2}`)
	var snap codecSnapshot

	if err := codec.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.Title != "inbox" {
		t.Errorf("expected title 'inbox', got %q", snap.Title)
	}
	if len(snap.Items) != 2 || snap.Items[0] != "milk" {
		t.Errorf("expected items [milk bread], got %v", snap.Items)
	}
	if snap.Count != 2 {
		t.Errorf("expected count 2, got %d", snap.Count)
	}
}

func TestJSONCodec_UnmarshalInvalid(t *testing.T) {
	codec := JSONCodec{}

	data := []byte(`{not valid json}`)
	var snap codecSnapshot

	if err := codec.Unmarshal(data, &snap); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestJSONCodec_ContentType(t *testing.T) {
	codec := JSONCodec{}

	if ct := codec.ContentType(); ct != "application/json" {
		t.Errorf("expected 'application/json', got %q", ct)
	}
}

func TestYAMLCodec_Unmarshal(t *testing.T) {
	codec := YAMLCodec{}

	data := []byte("title: inbox\nitems:\n  - milk\n  - bread\ncount: 2")
	var snap codecSnapshot

	if err := codec.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.Title != "inbox" {
		t.Errorf("expected title 'inbox', got %q", snap.Title)
	}
	if len(snap.Items) != 2 || snap.Items[1] != "bread" {
		t.Errorf("expected items [milk bread], got %v", snap.Items)
	}
}

func TestYAMLCodec_UnmarshalJSON(t *testing.T) {
	codec := YAMLCodec{}

	// YAML codec should also accept JSON (YAML is a superset of JSON)
	data := []byte(`{"title": "json-compat", "count": 99}`)
	var snap codecSnapshot

	if err := codec.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.Title != "json-compat" {
		t.Errorf("expected title 'json-compat', got %q", snap.Title)
	}
	if snap.Count != 99 {
		t.Errorf("expected count 99, got %d", snap.Count)
	}
}

func TestYAMLCodec_UnmarshalInvalid(t *testing.T) {
	codec := YAMLCodec{}

	data := []byte("title: [unclosed")
	var snap codecSnapshot

	if err := codec.Unmarshal(data, &snap); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestYAMLCodec_ContentType(t *testing.T) {
	codec := YAMLCodec{}

	if ct := codec.ContentType(); ct != "application/x-yaml" {
		t.Errorf("expected 'application/x-yaml', got %q", ct)
	}
}
