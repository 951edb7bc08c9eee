package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/propnet/internal/ir"
)

// marshalState converts a state to canonical JSON TEXT for storage.
func marshalState(s ir.ExternalState) (string, error) {
	data, err := ir.MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// unmarshalState parses a canonical JSON array of facts.
func unmarshalState(data string) (ir.ExternalState, error) {
	var s ir.ExternalState
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return ir.ExternalState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return s, nil
}

// marshalInts converts node indices to canonical JSON TEXT.
func marshalInts(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal indices: %w", err)
	}
	return string(data), nil
}

func unmarshalInts(data string) ([]int, error) {
	var v []int
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal indices: %w", err)
	}
	return v, nil
}

// Times are stored as RFC 3339 text in UTC so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
