// Package schema describes the form bodies the service accepts, so callers
// of the raw api command can discover field names.
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Schema is a JSON Schema-like description of one form or field.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Method      string             `json:"method,omitempty"`
	Path        string             `json:"path,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Format      string             `json:"format,omitempty"`
}

var (
	registry = make(map[string]*Schema)
	mu       sync.RWMutex
)

// Register adds a schema to the registry.
func Register(name string, s *Schema) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = s
}

// Get retrieves a schema by name.
func Get(name string) (*Schema, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("schema %q not found", name)
	}
	return s, nil
}

// List returns all registered schema names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Form describes a request body sent with method to path.
func Form(method, path, desc string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:        "object",
		Description: desc,
		Method:      method,
		Path:        path,
		Properties:  props,
		Required:    required,
	}
}

// String creates a free-text field.
func String(desc string) *Schema {
	return &Schema{Type: "string", Description: desc}
}

// ID creates a positive integer field.
func ID(desc string) *Schema {
	return &Schema{Type: "integer", Description: desc}
}

// IDList creates a comma-separated list of IDs.
func IDList(desc string) *Schema {
	return &Schema{Type: "string", Format: "id-list", Description: desc}
}

// Date creates a YYYY-MM-DD field.
func Date(desc string) *Schema {
	return &Schema{Type: "string", Format: "date", Description: desc}
}

// File creates a file part; any number may be sent.
func File(desc string) *Schema {
	return &Schema{Type: "string", Format: "binary", Description: desc}
}
