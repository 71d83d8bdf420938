package schema_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/xraph/conductor/schema"
)

func compile(t *testing.T, c *schema.JSONSchemaCompiler, s schema.Schema) schema.Validator {
	t.Helper()
	v, err := c.Compile(context.Background(), s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return v
}

func TestCompile_AcceptAndReject(t *testing.T) {
	t.Parallel()

	c := schema.NewCompiler()
	numbers := map[string]any{"type": "array", "items": map[string]any{"type": "number"}}

	tests := []struct {
		name   string
		schema schema.Schema
		raw    string
		ok     bool
	}{
		{"nil accepts", nil, `{"anything":true}`, true},
		{"true accepts", true, `"x"`, true},
		{"false rejects", false, `1`, false},
		{"numbers ok", numbers, `[1,2,3]`, true},
		{"numbers bad", numbers, `[1,"two"]`, false},
		{"type mismatch", map[string]any{"type": "string"}, `5`, false},
		{"required missing", map[string]any{"type": "object", "required": []string{"id"}}, `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compile(t, c, tt.schema)
			_, errs, err := schema.Check(v, json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if tt.ok && len(errs) > 0 {
				t.Errorf("expected success, got errors %v", errs)
			}
			if !tt.ok && len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestCompile_InjectsDefaults(t *testing.T) {
	t.Parallel()

	c := schema.NewCompiler()
	v := compile(t, c, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"retries": map[string]any{"type": "integer", "default": 3},
			"nested": map[string]any{
				"type":    "object",
				"default": map[string]any{},
				"properties": map[string]any{
					"mode": map[string]any{"type": "string", "default": "fast"},
				},
			},
		},
	})

	out, errs, err := schema.Check(v, json.RawMessage(`{"name":"x"}`))
	if err != nil || len(errs) > 0 {
		t.Fatalf("Check: %v %v", err, errs)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["retries"] != float64(3) {
		t.Errorf("retries = %v, want 3", got["retries"])
	}
	nested, _ := got["nested"].(map[string]any)
	if nested["mode"] != "fast" {
		t.Errorf("nested.mode = %v, want fast", nested["mode"])
	}
	if got["name"] != "x" {
		t.Errorf("name = %v, want x", got["name"])
	}
}

func TestCompile_WithoutDefaults(t *testing.T) {
	t.Parallel()

	c := schema.NewCompiler(schema.WithoutDefaults())
	v := compile(t, c, map[string]any{
		"properties": map[string]any{"a": map[string]any{"default": 1}},
	})
	out, _, err := schema.Check(v, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if string(out) != `{}` {
		t.Errorf("out = %s, want {}", out)
	}
}

func TestCompile_Caches(t *testing.T) {
	t.Parallel()

	c := schema.NewCompiler()
	compile(t, c, map[string]any{"type": "string", "minLength": 1})
	compile(t, c, map[string]any{"minLength": 1, "type": "string"})
	compile(t, c, true)

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCheck_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, _, err := schema.Check(schema.AcceptAll, json.RawMessage(`{nope`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCanonical_KeyOrderIndependent(t *testing.T) {
	t.Parallel()

	a, err := schema.Canonical(json.RawMessage(`{"b":1,"a":{"y":2,"x":[1,2]}}`))
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := schema.Canonical(json.RawMessage(`{ "a": {"x":[1,2], "y":2}, "b":1 }`))
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("canonical forms differ: %s vs %s", a, b)
	}
}

func TestCanonical_Numbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"integer and decimal", `[1,2]`, `[1.0,2]`, true},
		{"exponent", `{"n":1}`, `{"n":1e0}`, true},
		{"large exponent", `1000000000000000000000`, `1e21`, true},
		{"negative zero", `-0`, `0.0`, true},
		{"fraction", `0.10`, `1e-1`, true},
		{"distinct values", `[1,2]`, `[1,2.5]`, false},
		{"number and string", `1`, `"1"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := schema.Canonical(json.RawMessage(tt.a))
			if err != nil {
				t.Fatalf("Canonical(%s): %v", tt.a, err)
			}
			b, err := schema.Canonical(json.RawMessage(tt.b))
			if err != nil {
				t.Fatalf("Canonical(%s): %v", tt.b, err)
			}
			if got := string(a) == string(b); got != tt.same {
				t.Errorf("Canonical(%s) = %s, Canonical(%s) = %s, same = %v, want %v", tt.a, a, tt.b, b, got, tt.same)
			}
		})
	}
}

func TestApplyDefaults_DoesNotMutate(t *testing.T) {
	t.Parallel()

	in := map[string]any{}
	sch := map[string]any{"properties": map[string]any{"a": map[string]any{"default": "z"}}}
	out := schema.ApplyDefaults(sch, in).(map[string]any)
	if _, ok := in["a"]; ok {
		t.Error("input map was mutated")
	}
	if out["a"] != "z" {
		t.Errorf("out[a] = %v, want z", out["a"])
	}
}
