package cfg

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk graph description.
//
//	entry: 0x401000
//	blocks:
//	  - addr: 0x401000
//	    insns: 4
//	    succ: [0x401010, 0x401020]
type File struct {
	Entry  uint64  `yaml:"entry" json:"entry"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
}

// Load reads a graph file (YAML or JSON, chosen by extension).
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return DecodeJSON(f)
	}
	return DecodeYAML(f)
}

// DecodeYAML parses a YAML graph description. Addresses may be written in hex.
func DecodeYAML(r io.Reader) (*Graph, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}
	return file.Graph()
}

// DecodeJSON parses a JSON graph description.
func DecodeJSON(r io.Reader) (*Graph, error) {
	var file File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse graph json: %w", err)
	}
	return file.Graph()
}

// Graph compiles the description. A zero entry defaults to the first block.
func (f File) Graph() (*Graph, error) {
	entry := f.Entry
	if entry == 0 && len(f.Blocks) > 0 {
		entry = f.Blocks[0].Addr
	}
	return New(entry, f.Blocks...)
}

// Encode writes g as YAML.
func Encode(w io.Writer, g *Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Entry: g.Entry(), Blocks: g.Blocks()}); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return enc.Close()
}
