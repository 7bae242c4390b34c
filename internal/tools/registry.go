// Package tools holds the named capabilities the resolver may call, and the
// adapters that turn search collaborators into such capabilities.
package tools

import (
	"context"
	"fmt"
	"strings"
)

// InvokeFunc runs a tool against a free-text query.
type InvokeFunc func(ctx context.Context, query string) (string, error)

// Descriptor describes one tool. Description is shown to the language model and
// drives routing, so it should say when the tool is worth calling.
type Descriptor struct {
	Name        string
	Description string
	Invoke      InvokeFunc
}

// Registry is an ordered, name-unique set of tools. It is assembled at startup and
// only read afterwards, so a single Registry can be shared by every session.
type Registry struct {
	order []Descriptor
	index map[string]int
}

// NewRegistry registers descs in order and fails on the first invalid or
// duplicate descriptor.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a tool. Registering is only meant to happen during startup.
func (r *Registry) Register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.Invoke == nil {
		return fmt.Errorf("tool %s has no invoke function", d.Name)
	}
	if _, exists := r.index[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	r.index[d.Name] = len(r.order)
	r.order = append(r.order, d)
	return nil
}

// List returns the tools in registration order.
func (r *Registry) List() []Descriptor {
	return append([]Descriptor(nil), r.order...)
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, d := range r.order {
		names[i] = d.Name
	}
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Catalogue renders "name: description" lines for the routing prompt.
func (r *Registry) Catalogue() string {
	lines := make([]string, len(r.order))
	for i, d := range r.order {
		lines[i] = d.Name + ": " + d.Description
	}
	return strings.Join(lines, "\n")
}

// Subset returns a registry holding the named tools that exist in r, ordered as
// requested. Unknown names are skipped so profiles survive disabled tools.
func (r *Registry) Subset(names ...string) *Registry {
	sub := &Registry{index: make(map[string]int, len(names))}
	for _, name := range names {
		i, ok := r.index[name]
		if !ok {
			continue
		}
		if _, dup := sub.index[name]; dup {
			continue
		}
		sub.index[name] = len(sub.order)
		sub.order = append(sub.order, r.order[i])
	}
	return sub
}

// Invoke runs the named tool. A panicking tool is reported as an ExecutionError.
func (r *Registry) Invoke(ctx context.Context, name, query string) (result string, err error) {
	i, ok := r.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	d := r.order[i]
	defer func() {
		if p := recover(); p != nil {
			result = ""
			err = &ExecutionError{Tool: name, Cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, invokeErr := d.Invoke(ctx, query)
	if invokeErr != nil {
		return "", &ExecutionError{Tool: name, Cause: invokeErr}
	}
	return out, nil
}
