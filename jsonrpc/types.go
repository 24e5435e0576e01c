// Package jsonrpc implements the request/response envelopes and the
// handler-dispatch machinery for the JSON-RPC 2.0 surface (spec
// components C2 and C3). It never talks to the network directly; the
// HTTP front-end owns that and hands this package a decoded request
// body.
package jsonrpc

import (
	"encoding/json"

	"github.com/creachadair/jrpc2/code"
)

const version = "2.0"

// AdmissionRejected is this daemon's extension to the reserved
// implementation-defined JSON-RPC error range, used when the HTTP
// front-end turns away a connection over MaxClients.
const AdmissionRejected code.Code = -32400

// requestObject is the wire shape of a single JSON-RPC 2.0 call.
type requestObject struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    code.Code `json:"code"`
	Message string    `json:"message"`
}

// responseObject is the wire shape of a single JSON-RPC 2.0 answer.
// Result and Error are mutually exclusive; exactly one is non-nil on a
// well-formed response.
type responseObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// canonicalMessage returns the fixed text the wire contract specifies
// for each of the four canonical codes and for AdmissionRejected;
// everything else falls back to whatever message the caller supplied.
func canonicalMessage(c code.Code, fallback string) string {
	switch c {
	case code.InvalidRequest:
		return "Invalid Request."
	case code.MethodNotFound:
		return "Method not found."
	case code.InvalidParams:
		return "Invalid params."
	case code.InternalError:
		return "Internal error."
	case AdmissionRejected:
		return "Too many connections"
	default:
		return fallback
	}
}

func errorResponse(id json.RawMessage, c code.Code, message string) []byte {
	resp := responseObject{
		JSONRPC: version,
		Error:   &Error{Code: c, Message: canonicalMessage(c, message)},
		ID:      id,
	}
	b, err := json.Marshal(resp)
	if err != nil {
		// Marshaling a struct of strings/ints cannot fail; this would be
		// a bug in responseObject's shape, not a runtime condition.
		panic(err)
	}
	return b
}

// AdmissionRejectedBody is the fixed JSON-RPC envelope the HTTP
// front-end returns verbatim on 503: the connection
// never reached the codec, so id is always null.
func AdmissionRejectedBody() []byte {
	return errorResponse(json.RawMessage("null"), AdmissionRejected, "")
}
