// Package export writes analyses and step sequences in their external forms:
// snake_case JSON, optionally zstd-compressed trace files, YAML and plain text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"algoscope/internal/trace"
)

// EncodeSteps renders steps as a JSON array. Floats always carry a decimal point
// so that 3.0 decodes back as a float, not as the integer 3.
func EncodeSteps(steps []trace.Step) ([]byte, error) {
	out := make([]trace.Step, len(steps))
	for i, s := range steps {
		out[i] = encodeStep(s)
	}
	return json.Marshal(out)
}

// DecodeSteps parses the output of EncodeSteps. Integer literals decode as int64
// and literals with a fraction or exponent as float64.
func DecodeSteps(data []byte) ([]trace.Step, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var steps []trace.Step
	if err := dec.Decode(&steps); err != nil {
		return nil, fmt.Errorf("decoding steps: %w", err)
	}
	for i := range steps {
		if err := decodeStep(&steps[i]); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return steps, nil
}

// decimal is a float64 that always marshals with a fraction or exponent.
type decimal float64

func (d decimal) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		// JSON has no literal for these; keep Python's spelling as a string
		return json.Marshal(pythonFloat(f))
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func pythonFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case f > 0:
		return "inf"
	}
	return "-inf"
}

func encodeStep(s trace.Step) trace.Step {
	s.Before = encodeVars(s.Before)
	s.After = encodeVars(s.After)
	if s.Changes != nil {
		changes := make(map[string]trace.Change, len(s.Changes))
		for k, c := range s.Changes {
			changes[k] = trace.Change{Type: c.Type, Old: encodeValue(c.Old), New: encodeValue(c.New)}
		}
		s.Changes = changes
	}
	if s.Visualization != nil {
		v := *s.Visualization
		v.Pointers = encodeMap(v.Pointers)
		v.DataStructureState = encodeMap(v.DataStructureState)
		s.Visualization = &v
	}
	return s
}

func encodeVars(vars trace.Vars) trace.Vars {
	if vars == nil {
		return nil
	}
	return trace.Vars(encodeMap(vars))
}

func encodeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		return decimal(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, it := range x {
			out[i] = encodeValue(it)
		}
		return out
	case map[string]interface{}:
		return encodeMap(x)
	case trace.Vars:
		return encodeMap(x)
	}
	return v
}

func decodeStep(s *trace.Step) error {
	var err error
	if s.Before, err = decodeVars(s.Before); err != nil {
		return err
	}
	if s.After, err = decodeVars(s.After); err != nil {
		return err
	}
	for k, c := range s.Changes {
		if c.Old, err = decodeValue(c.Old); err != nil {
			return err
		}
		if c.New, err = decodeValue(c.New); err != nil {
			return err
		}
		s.Changes[k] = c
	}
	if v := s.Visualization; v != nil {
		if v.Pointers, err = decodeMap(v.Pointers); err != nil {
			return err
		}
		if v.DataStructureState, err = decodeMap(v.DataStructureState); err != nil {
			return err
		}
	}
	return nil
}

func decodeVars(vars trace.Vars) (trace.Vars, error) {
	m, err := decodeMap(vars)
	if m == nil {
		return nil, err
	}
	return trace.Vars(m), err
}

func decodeMap(m map[string]interface{}) (map[string]interface{}, error) {
	if m == nil {
		return nil, nil
	}
	for k, v := range m {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, err
		}
		m[k] = dv
	}
	return m, nil
}

func decodeValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case json.Number:
		s := string(x)
		if strings.ContainsAny(s, ".eE") {
			return x.Float64()
		}
		return x.Int64()
	case []interface{}:
		for i, it := range x {
			dv, err := decodeValue(it)
			if err != nil {
				return nil, err
			}
			x[i] = dv
		}
		return x, nil
	case map[string]interface{}:
		return decodeMap(x)
	}
	return v, nil
}
