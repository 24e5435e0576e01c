package handlers

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/jsonrpc"
	"github.com/perfwatcher/perfwatcherd/logger"
)

type statusParams struct {
	Timeout int      `json:"timeout"`
	Server  []string `json:"server"`
}

// GetStatus implements pw_get_status: classify each requested server as
// up/down/unknown from the freshest timestamp seen for it in the current
// snapshot.
func (h *Handlers) GetStatus(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p statusParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.InvalidParams("malformed params")
		}
	}

	result := make(map[string]string, len(p.Server))
	if len(p.Server) == 0 {
		return result, nil
	}

	requested := make(map[string]struct{}, len(p.Server))
	latest := make(map[string]time.Time, len(p.Server))
	for _, srv := range p.Server {
		requested[srv] = struct{}{}
	}

	handle, err := h.Table.Acquire()
	if err == nil {
		for i, name := range handle.Names {
			prefix, _, ok := hostPrefix(name)
			if !ok {
				continue
			}
			if _, want := requested[prefix]; !want {
				continue
			}
			t := handle.Times[i]
			if t.After(latest[prefix]) {
				latest[prefix] = t
			}
		}
		h.Table.Release(handle)
	} else {
		// A missing snapshot (i.e. before the first Refresh) is not
		// fatal for this method: every server is simply reported
		// "unknown", the same as one that was never observed.
		logger.FromContext(ctx, h.Log).Debug("snapshot unavailable for pw_get_status, reporting unknown", zap.Error(err))
	}

	now := time.Now()
	cutoff := now.Add(-time.Duration(p.Timeout) * time.Second)
	for srv := range requested {
		result[srv] = classify(latest[srv], cutoff)
	}
	return result, nil
}

func classify(latest, cutoff time.Time) string {
	if latest.IsZero() {
		return "unknown"
	}
	if !latest.Before(cutoff) {
		return "up"
	}
	return "down"
}
