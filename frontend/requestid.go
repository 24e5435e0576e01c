package frontend

import "github.com/google/uuid"

// newRequestID mints a per-request identifier for log correlation only;
// it has nothing to do with the JSON-RPC id field on the wire.
func newRequestID() string {
	return uuid.NewString()
}
