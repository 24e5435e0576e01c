package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/creachadair/jrpc2/code"
)

// nullID is the JSON-RPC null id. Nothing in this package reports it
// today: structural failures produce no envelope at all, and
// AdmissionRejectedBody writes its own null id.
var nullID = json.RawMessage("null")

// parseOne turns a single decoded JSON object into a response envelope.
// ok is false when the node fails structurally (wrong jsonrpc version,
// missing/non-integer id) - these must produce no envelope at all,
// leaving the HTTP layer to surface a generic 400.
func parseOne(ctx context.Context, reg *Registry, node json.RawMessage) (answer []byte, ok bool) {
	var req requestObject
	if err := json.Unmarshal(node, &req); err != nil {
		return nil, false
	}

	if req.JSONRPC != version {
		return nil, false
	}

	id, idOK := normalizeID(req.ID)
	if !idOK {
		return nil, false
	}

	if req.Method == "" {
		return errorResponse(id, code.InvalidRequest, ""), true
	}

	handler, found := reg.Lookup(req.Method)
	if !found {
		return errorResponse(id, code.MethodNotFound, ""), true
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		if he, ok := err.(*HandlerError); ok && he.Code < 0 {
			return errorResponse(id, he.Code, he.Message), true
		}
		return errorResponse(id, code.InternalError, ""), true
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, code.InternalError, ""), true
	}

	resp := responseObject{JSONRPC: version, Result: resultJSON, ID: id}
	b, err := json.Marshal(resp)
	if err != nil {
		return errorResponse(id, code.InternalError, ""), true
	}
	return b, true
}

// normalizeID requires an integer id per the wire contract: non-integer
// ids are treated as invalid. It re-emits the id without extraneous whitespace so later
// byte-level joining is deterministic.
func normalizeID(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, false
	}
	return json.RawMessage(b), true
}

// ParseRequest is the codec's only entry point from the HTTP front-end.
// raw is the fully decoded request body (percent-decoding, if any, has
// already happened). ok is false for every structural failure: the
// front-end is expected to answer those with a generic 400 HTML page and
// never inspect answer in that case.
func ParseRequest(ctx context.Context, reg *Registry, raw []byte) (answer []byte, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}

	switch trimmed[0] {
	case '{':
		return parseOne(ctx, reg, json.RawMessage(trimmed))

	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, false
		}
		parts := make([][]byte, 0, len(elements))
		for _, el := range elements {
			if !isObject(el) {
				return nil, false
			}
			part, ok := parseOne(ctx, reg, el)
			if !ok {
				return nil, false
			}
			parts = append(parts, part)
		}
		var out bytes.Buffer
		out.WriteByte('[')
		out.Write(bytes.Join(parts, []byte(", ")))
		out.WriteByte(']')
		return out.Bytes(), true

	default:
		return nil, false
	}
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
