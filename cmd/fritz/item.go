package main

import (
	"path/filepath"

	"github.com/jwstegemann/fritz"
)

// Item is one entry of a watched or rendered list file.
type Item struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Done bool   `json:"done" yaml:"done"`
}

// renderItem renders one item as a list element. Identity travels in the
// data-id attribute so keyed patching can be followed in the output.
func renderItem(it Item) fritz.Node {
	li := fritz.NewElement("li")
	li.SetAttr("data-id", it.ID)
	if it.Done {
		li.SetAttr("class", "done")
	}
	li.SetText(it.Text)
	return li
}

// codecFor picks a codec from the file extension. YAML for .yaml/.yml,
// JSON otherwise.
func codecFor(path string) fritz.Codec {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return fritz.YAMLCodec{}
	default:
		return fritz.JSONCodec{}
	}
}
