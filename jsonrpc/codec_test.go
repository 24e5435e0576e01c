package jsonrpc

import (
	"context"
	"encoding/json"
	"testing"
)

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("pw_get_dir_hosts", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"values": []string{"host1"}, "nb": 1}, nil
	})
	return reg
}

// An unknown method produces a -32601 envelope, not a structural failure.
func TestParseRequestUnknownMethod(t *testing.T) {
	reg := testRegistry()
	answer, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"2.0","id":1,"method":"no_such"}`))
	if !ok {
		t.Fatal("expected ok=true (a JSON-RPC error envelope, not a structural failure)")
	}

	var resp responseObject
	if err := json.Unmarshal(answer, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32601 || resp.Error.Message != "Method not found." {
		t.Fatalf("unexpected error envelope: %+v", resp.Error)
	}
	if string(resp.ID) != "1" {
		t.Fatalf("expected id=1, got %s", resp.ID)
	}
}

// A batch with one good and one bad element returns both envelopes, in order.
func TestParseRequestBatchMixedResults(t *testing.T) {
	reg := testRegistry()
	raw := []byte(`[{"jsonrpc":"2.0","id":1,"method":"pw_get_dir_hosts"},{"jsonrpc":"2.0","id":2,"method":"no_such"}]`)
	answer, ok := ParseRequest(context.Background(), reg, raw)
	if !ok {
		t.Fatal("expected ok=true for a structurally well-formed batch")
	}

	var envelopes []responseObject
	if err := json.Unmarshal(answer, &envelopes); err != nil {
		t.Fatalf("unmarshal batch answer: %v\nanswer=%s", err, answer)
	}
	if len(envelopes) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envelopes))
	}
	if envelopes[0].Error != nil {
		t.Fatalf("expected element 1 to succeed, got error %+v", envelopes[0].Error)
	}
	if envelopes[1].Error == nil || envelopes[1].Error.Code != -32601 {
		t.Fatalf("expected element 2 to carry -32601, got %+v", envelopes[1].Error)
	}
	if string(envelopes[1].ID) != "2" {
		t.Fatalf("expected element 2 id=2, got %s", envelopes[1].ID)
	}
}

// Any non-object element in a batch fails the whole batch structurally.
func TestParseRequestBatchRejectsNonObjectElement(t *testing.T) {
	reg := testRegistry()
	raw := []byte(`[{"jsonrpc":"2.0","id":1,"method":"pw_get_dir_hosts"}, "not an object"]`)
	if _, ok := ParseRequest(context.Background(), reg, raw); ok {
		t.Fatal("expected the whole batch to fail structurally")
	}
}

func TestParseRequestWrongVersionFailsStructurally(t *testing.T) {
	reg := testRegistry()
	if _, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"1.0","id":1,"method":"pw_get_dir_hosts"}`)); ok {
		t.Fatal("expected structural failure for jsonrpc != 2.0")
	}
}

func TestParseRequestNonIntegerIDFailsStructurally(t *testing.T) {
	reg := testRegistry()
	if _, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"2.0","id":"one","method":"pw_get_dir_hosts"}`)); ok {
		t.Fatal("expected structural failure for non-integer id")
	}
}

func TestParseRequestMissingMethodProducesInvalidRequestEnvelope(t *testing.T) {
	reg := testRegistry()
	answer, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"2.0","id":1}`))
	if !ok {
		t.Fatal("missing method must still produce an envelope, not a structural failure")
	}
	var resp responseObject
	_ = json.Unmarshal(answer, &resp)
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected -32600, got %+v", resp.Error)
	}
}

func TestParseRequestEmptyBodyFailsStructurally(t *testing.T) {
	reg := testRegistry()
	if _, ok := ParseRequest(context.Background(), reg, []byte(``)); ok {
		t.Fatal("expected structural failure for empty body")
	}
}

func TestHandlerInvalidParamsMapsTo32602(t *testing.T) {
	reg := NewRegistry()
	reg.Register("needs_params", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return nil, InvalidParams("bad shape")
	})
	answer, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"2.0","id":7,"method":"needs_params"}`))
	if !ok {
		t.Fatal("expected ok=true")
	}
	var resp responseObject
	_ = json.Unmarshal(answer, &resp)
	if resp.Error == nil || resp.Error.Code != -32602 || resp.Error.Message != "Invalid params." {
		t.Fatalf("unexpected envelope: %+v", resp.Error)
	}
}

func TestHandlerGenericErrorMapsToInternalError(t *testing.T) {
	reg := NewRegistry()
	reg.Register("boom", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return nil, context.DeadlineExceeded
	})
	answer, ok := ParseRequest(context.Background(), reg, []byte(`{"jsonrpc":"2.0","id":1,"method":"boom"}`))
	if !ok {
		t.Fatal("expected ok=true")
	}
	var resp responseObject
	_ = json.Unmarshal(answer, &resp)
	if resp.Error == nil || resp.Error.Code != -32603 || resp.Error.Message != "Internal error." {
		t.Fatalf("unexpected envelope: %+v", resp.Error)
	}
}
