// Package utils holds small decoding and rendering helpers shared by the
// upstream client and the report builders.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrUndecodable is returned when no strategy produced a value.
var ErrUndecodable = errors.New("payload is not decodable as JSON")

// DecodeLenient decodes data into v, trying in order:
//  1. standard JSON
//  2. repaired JSON (trailing commas, truncated arrays, stray text)
//  3. Hjson
//
// It returns the name of the strategy that succeeded.
func DecodeLenient(data []byte, v any) (string, error) {
	if err := json.Unmarshal(data, v); err == nil {
		return "json", nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return "repair", nil
		}
	}

	if normalized, err := hjsonToJSON(data); err == nil {
		if err := json.Unmarshal(normalized, v); err == nil {
			return "hjson", nil
		}
	}

	return "", ErrUndecodable
}

// hjsonToJSON round-trips Hjson through a generic value so that the result
// can be decoded with the struct's json tags.
func hjsonToJSON(data []byte) ([]byte, error) {
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("hjson: %w", err)
	}
	return json.Marshal(generic)
}
