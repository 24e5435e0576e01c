// Package handlers implements the read-only RPC methods. Each handler
// is a plain jsonrpc.Handler closure over a *Handlers receiver; none of
// them touch the network or the codec directly.
package handlers

import (
	"strings"

	"github.com/perfwatcher/perfwatcherd/jsonrpc"
	"github.com/perfwatcher/perfwatcherd/logger"
	"github.com/perfwatcher/perfwatcherd/snapshot"
)

// Handlers bundles the collaborators every query method needs: a
// snapshot table to read the metric-name index from, the data directory
// root for the three directory-listing methods, and a fallback logger
// for call sites (direct calls in tests, mainly) that reach a handler
// without going through the HTTP front-end's per-request logger.
type Handlers struct {
	Table   *snapshot.Table
	Datadir string
	Log     *logger.Logger
}

// New returns a Handlers bound to table and datadir. An empty datadir is
// treated as ".", matching the host-process convention. log may be nil
// in tests that never exercise a logging path.
func New(table *snapshot.Table, datadir string, log *logger.Logger) *Handlers {
	if datadir == "" {
		datadir = "."
	}
	return &Handlers{Table: table, Datadir: datadir, Log: log}
}

// RegisterAll adds every method to reg under its wire name.
func (h *Handlers) RegisterAll(reg *jsonrpc.Registry) {
	reg.Register("pw_get_status", h.GetStatus)
	reg.Register("pw_get_metric", h.GetMetric)
	reg.Register("pw_get_dir_hosts", h.GetDirHosts)
	reg.Register("pw_get_dir_plugins", h.GetDirPlugins)
	reg.Register("pw_get_dir_types", h.GetDirTypes)
}

// hostPrefix returns the substring of name up to (not including) the
// first '/', the metric identifier after that '/', and whether a '/'
// was found at all. Names without a '/' are
// malformed; callers skip them rather than aborting (the source's own
// assertion on this case treats it as a bug, but it's simply skipped
// here).
func hostPrefix(name string) (prefix string, id string, ok bool) {
	idx := strings.IndexByte(name, '/')
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// validateName rejects the three hostname/plugin shapes the directory
// handlers must not accept: an empty name is accepted as is (caller decides
// whether that's meaningful), but ".", ".." and any "/"-containing value
// are always invalid.
func validateName(name string) error {
	if strings.Contains(name, "/") {
		return jsonrpc.InvalidParams("name must not contain '/'")
	}
	if name == "." || name == ".." {
		return jsonrpc.InvalidParams("name must not be '.' or '..'")
	}
	return nil
}
