package jsonrpc

import (
	"context"
	"encoding/json"

	"github.com/creachadair/jrpc2/code"
)

// HandlerError lets a Handler report a caller-facing JSON-RPC error
// (invalid params, etc.) instead of a generic internal failure. Any
// other error value returned by a Handler is reported as
// code.InternalError, matching the source's "positive return ->
// -32603" convention without forcing handlers to know about raw
// integer codes.
type HandlerError struct {
	Code    code.Code
	Message string
}

func (e *HandlerError) Error() string { return e.Message }

// InvalidParams is a convenience constructor for the common case of a
// malformed params object.
func InvalidParams(message string) error {
	return &HandlerError{Code: code.InvalidParams, Message: message}
}

// Handler is the contract every RPC method implements: given the raw
// params value (may be nil for an absent/null params field), produce a
// result to marshal into the response envelope, or an error. Handlers
// accept interfaces/structs and return explicit errors, the Go
// counterpart of a C-style handler(params, result_builder,
// *errorstring) -> int contract.
type Handler func(ctx context.Context, params json.RawMessage) (result interface{}, err error)

type entry struct {
	name    string
	handler Handler
}

// Registry is the static method table. Lookup is a linear scan
// over a handful of entries, matching the source's own table - there is
// no need for a map at this size, and a slice keeps registration order
// visible for anyone reading the table.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds name -> handler to the table. Registering the same name
// twice is a programming error and panics, since the table is meant to
// be built once at startup.
func (r *Registry) Register(name string, h Handler) {
	for _, e := range r.entries {
		if e.name == name {
			panic("jsonrpc: duplicate method registration: " + name)
		}
	}
	r.entries = append(r.entries, entry{name: name, handler: h})
}

// Lookup finds the handler for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	for _, e := range r.entries {
		if e.name == name {
			return e.handler, true
		}
	}
	return nil, false
}
