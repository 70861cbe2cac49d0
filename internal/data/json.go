package data

import (
	"context"
	"encoding/json"
	"os"
)

// LoadTableJSON reads a table in the NAV service's response shape.
func LoadTableJSON(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// JSONFileProvider serves <Dir>/<instrument>.json files, e.g. saved NAV
// service responses.
type JSONFileProvider struct {
	Dir string
}

func (p *JSONFileProvider) Name() string { return "json" }

func (p *JSONFileProvider) Fetch(ctx context.Context, instrumentID string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := instrumentFile(p.Dir, instrumentID, ".json")
	if err != nil {
		return nil, err
	}
	return LoadTableJSON(path)
}
