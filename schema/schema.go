// Package schema validates job payloads. A Compiler turns a schema
// description into a Validator; the scheduler compiles the argument, input
// and output schemas of every job description it resolves.
//
// Payloads are JSON documents. They are decoded with numbers preserved as
// json.Number, validated, optionally enriched with schema defaults, and
// re-encoded before they reach handlers or subscribers.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a JSON Schema document: a bool, a map, or anything that
// marshals to one. A nil Schema accepts every value.
type Schema = any

// Result is the outcome of validating one value.
type Result struct {
	Success bool
	// Data is the validated value, with schema defaults applied.
	Data   any
	Errors []string
}

// Validator checks a decoded JSON value.
type Validator func(value any) Result

// Compiler compiles schemas into validators. Implementations must return
// equivalent validators for equal schemas and be safe for concurrent use.
type Compiler interface {
	Compile(ctx context.Context, s Schema) (Validator, error)
}

// AcceptAll is the validator for an absent or `true` schema.
func AcceptAll(value any) Result {
	return Result{Success: true, Data: value}
}

// RejectAll is the validator for the `false` schema.
func RejectAll(value any) Result {
	return Result{Data: value, Errors: []string{"schema rejects every value"}}
}

// Decode parses a JSON document. Empty input decodes to nil (JSON null).
func Decode(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema: decode payload: %w", err)
	}
	return v, nil
}

// Normalize converts any JSON-serializable Go value into its decoded JSON
// form (maps, slices, json.Number, strings, bools, nil).
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema: encode value: %w", err)
	}
	return Decode(raw)
}

// Check decodes raw, validates it and re-encodes the validated data.
// A failed validation returns nil data and the validator's messages; err is
// reserved for payloads that are not valid JSON.
func Check(v Validator, raw json.RawMessage) (json.RawMessage, []string, error) {
	value, err := Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	res := v(value)
	if !res.Success {
		errs := res.Errors
		if len(errs) == 0 {
			errs = []string{"value does not match schema"}
		}
		return nil, errs, nil
	}
	out, err := json.Marshal(res.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: encode validated value: %w", err)
	}
	return out, nil, nil
}

// Canonical returns a structural encoding of raw: object keys are sorted
// and numbers are written in one form per value, so 1, 1.0 and 1e0 encode
// identically.
func Canonical(raw json.RawMessage) ([]byte, error) {
	value, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	value, err = canonicalValue(value)
	if err != nil {
		return nil, err
	}
	// encoding/json writes map keys sorted.
	return json.Marshal(value)
}

func canonicalValue(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			c, err := canonicalValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			c, err := canonicalValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case json.Number:
		return canonicalNumber(v)
	default:
		return v, nil
	}
}

// canonicalNumber renders n as the shortest decimal that identifies its
// value at 256 bits of precision. Negative zero is written as 0.
func canonicalNumber(n json.Number) (json.Number, error) {
	f, _, err := big.ParseFloat(n.String(), 10, 256, big.ToNearestEven)
	if err != nil {
		return "", fmt.Errorf("schema: canonical number %q: %w", n, err)
	}
	if f.Sign() == 0 {
		return "0", nil
	}
	return json.Number(f.Text('g', -1)), nil
}
