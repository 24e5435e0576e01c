package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfwatcher/perfwatcherd/jsonrpc"
)

// dirResult is the shared wire shape for all three directory listings.
type dirResult struct {
	Values []string `json:"values"`
	Nb     int      `json:"nb"`
}

func listDir(path string) (interface{}, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		// Unreadable directory is an internal failure, not a caller
		// error: the hostname/plugin names were already validated.
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		values = append(values, name)
	}
	return dirResult{Values: values, Nb: len(values)}, nil
}

// GetDirHosts implements pw_get_dir_hosts: the top-level entries of the
// data directory.
func (h *Handlers) GetDirHosts(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return listDir(h.Datadir)
}

type hostnameParams struct {
	Hostname string `json:"hostname"`
}

// GetDirPlugins implements pw_get_dir_plugins: entries of
// <datadir>/<hostname>.
func (h *Handlers) GetDirPlugins(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p hostnameParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.InvalidParams("params must carry a hostname string")
	}
	if err := validateName(p.Hostname); err != nil {
		return nil, err
	}
	return listDir(filepath.Join(h.Datadir, p.Hostname))
}

type hostnamePluginParams struct {
	Hostname string `json:"hostname"`
	Plugin   string `json:"plugin"`
}

// GetDirTypes implements pw_get_dir_types: entries of
// <datadir>/<hostname>/<plugin>.
func (h *Handlers) GetDirTypes(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p hostnamePluginParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, jsonrpc.InvalidParams("params must carry hostname and plugin strings")
	}
	if err := validateName(p.Hostname); err != nil {
		return nil, err
	}
	if err := validateName(p.Plugin); err != nil {
		return nil, err
	}
	return listDir(filepath.Join(h.Datadir, p.Hostname, p.Plugin))
}
