// Package report provides output renderers for a converted creative.
// This file implements the JSON renderer, which emits the API payload
// itself — the body the ad-serving platform's creative endpoint accepts.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/adpipe/core"
)

// JSONRenderer produces the creative API payload as indented JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the creative payload.
func (r *JSONRenderer) Render(creative *core.Creative, meta core.ReportMeta) ([]byte, error) {
	data, err := json.MarshalIndent(creative, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
