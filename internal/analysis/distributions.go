package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Distribution is the posterior sample set of a single variant.
type Distribution struct {
	Variant string
	Samples []float64
}

// Distributions is a variant -> samples mapping that keeps the key order of
// the JSON document it was decoded from. Chart colours are assigned in this
// order, so it must not depend on map iteration.
type Distributions []Distribution

// Get returns the samples of variant.
func (d Distributions) Get(variant string) ([]float64, bool) {
	for _, dist := range d {
		if dist.Variant == variant {
			return dist.Samples, true
		}
	}
	return nil, false
}

// Variants returns the variant names in order.
func (d Distributions) Variants() []string {
	names := make([]string, len(d))
	for i, dist := range d {
		names[i] = dist.Variant
	}
	return names
}

func (d *Distributions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read distributions: %w", err)
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("distributions: expected object, got %v", tok)
	}

	out := Distributions{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read distribution key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("distributions: expected string key, got %v", keyTok)
		}

		var samples []float64
		if err := dec.Decode(&samples); err != nil {
			return fmt.Errorf("failed to decode distribution %q: %w", key, err)
		}

		// Repeated keys keep their first position and the last value,
		// matching how a plain object decodes.
		replaced := false
		for i := range out {
			if out[i].Variant == key {
				out[i].Samples = samples
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, Distribution{Variant: key, Samples: samples})
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read distributions end: %w", err)
	}

	*d = out
	return nil
}

func (d Distributions) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dist := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(dist.Variant)
		if err != nil {
			return nil, err
		}
		samples := dist.Samples
		if samples == nil {
			samples = []float64{}
		}
		values, err := json.Marshal(samples)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal distribution %q: %w", dist.Variant, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
