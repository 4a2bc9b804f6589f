package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// File loads pairs from a JSON file holding an array of
// {"imageUrl": ..., "answer": ...} objects.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Pairs() ([]Pair, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", f.Path, err)
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.ImageURL) == "" || strings.TrimSpace(p.Answer) == "" {
			return nil, fmt.Errorf("content file %s: entry %d is missing imageUrl or answer", f.Path, i)
		}
	}
	return pairs, nil
}
