package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Instrument describes a fund the backtester can load prices for.
type Instrument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`     // e.g. "index", "bond", "money_market"
	Currency string `json:"currency"` // e.g. "CNY"
	Provider string `json:"provider"` // csv, json, nav or yahoo
}

// InstrumentList is the on-disk instrument catalog.
type InstrumentList struct {
	UpdatedAt   string       `json:"updated_at"` // ISO 8601 timestamp
	Instruments []Instrument `json:"instruments"`
}

// Find returns the instrument with the given id.
func (l *InstrumentList) Find(id string) (Instrument, bool) {
	for _, in := range l.Instruments {
		if in.ID == id {
			return in, true
		}
	}
	return Instrument{}, false
}

// LoadInstruments loads the instrument catalog from a JSON file.
func LoadInstruments(filePath string) (*InstrumentList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read instruments file: %w", err)
	}

	var list InstrumentList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse instruments file: %w", err)
	}
	return &list, nil
}

// SaveInstruments writes the catalog as indented JSON, creating the directory if needed.
func SaveInstruments(list *InstrumentList, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instruments: %w", err)
	}
	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write instruments file: %w", err)
	}
	return nil
}

// DefaultInstrumentsPath returns INSTRUMENTS_FILE or ./data/instruments.json.
func DefaultInstrumentsPath() string {
	if path := os.Getenv("INSTRUMENTS_FILE"); path != "" {
		return path
	}
	return "./data/instruments.json"
}
