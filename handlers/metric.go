package handlers

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/jsonrpc"
	"github.com/perfwatcher/perfwatcherd/logger"
)

// GetMetric implements pw_get_metric: the set of distinct metric
// identifiers observed for any of the requested servers in the current
// snapshot, sorted lexicographically.
func (h *Handlers) GetMetric(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var servers []string
	if len(params) > 0 {
		if err := json.Unmarshal(params, &servers); err != nil {
			return nil, jsonrpc.InvalidParams("params must be an array of server names")
		}
	}

	requested := make(map[string]struct{}, len(servers))
	for _, s := range servers {
		requested[s] = struct{}{}
	}

	seen := make(map[string]struct{})
	handle, err := h.Table.Acquire()
	if err != nil {
		logger.FromContext(ctx, h.Log).Debug("snapshot unavailable for pw_get_metric, returning empty list", zap.Error(err))
		return []string{}, nil
	}
	for _, name := range handle.Names {
		prefix, id, ok := hostPrefix(name)
		if !ok {
			continue
		}
		if _, want := requested[prefix]; !want {
			continue
		}
		seen[id] = struct{}{}
	}
	h.Table.Release(handle)

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
