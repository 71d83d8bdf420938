package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchemaCompiler compiles JSON Schema documents (draft 2020-12 by
// default) and caches validators per canonical schema.
type JSONSchemaCompiler struct {
	mu       sync.Mutex
	cache    map[string]Validator
	seq      atomic.Uint64
	defaults bool
}

// CompilerOption configures a JSONSchemaCompiler.
type CompilerOption func(*JSONSchemaCompiler)

// WithoutDefaults disables injection of `default` values into validated data.
func WithoutDefaults() CompilerOption {
	return func(c *JSONSchemaCompiler) { c.defaults = false }
}

// NewCompiler creates a caching JSON Schema compiler.
func NewCompiler(opts ...CompilerOption) *JSONSchemaCompiler {
	c := &JSONSchemaCompiler{
		cache:    make(map[string]Validator),
		defaults: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Compiler = (*JSONSchemaCompiler)(nil)

// Compile implements Compiler.
func (c *JSONSchemaCompiler) Compile(_ context.Context, s Schema) (Validator, error) {
	if s == nil {
		return AcceptAll, nil
	}
	doc, err := Normalize(s)
	if err != nil {
		return nil, err
	}
	if b, ok := doc.(bool); ok {
		if b {
			return AcceptAll, nil
		}
		return RejectAll, nil
	}

	keyBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: encode schema: %w", err)
	}
	key := string(keyBytes)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache[key]; ok {
		return v, nil
	}

	url := fmt.Sprintf("https://conductor.local/schemas/%d.json", c.seq.Add(1))
	jc := jsonschema.NewCompiler()
	if err := jc.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := jc.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}

	defaults := c.defaults
	v := func(value any) Result {
		data := value
		if defaults {
			data = ApplyDefaults(doc, value)
		}
		if err := compiled.Validate(data); err != nil {
			return Result{Data: data, Errors: messages(err)}
		}
		return Result{Success: true, Data: data}
	}
	c.cache[key] = v
	return v, nil
}

// Len returns the number of cached validators.
func (c *JSONSchemaCompiler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func messages(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
