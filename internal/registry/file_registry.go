package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// mcpConfig is the on-disk shape: {"servers": {"<name>": {"url": "..."}}}.
type mcpConfig struct {
	Servers map[string]struct {
		URL string `json:"url"`
	} `json:"servers"`
}

// FileRegistry is an immutable registry loaded once from mcp.json.
type FileRegistry struct {
	servers map[string]ServerEntry
}

// LoadFileRegistry reads the registry from the given path. An empty path
// searches mcp.json in the working directory, then the parent. A missing
// file yields an empty registry, not an error.
func LoadFileRegistry(path string) (*FileRegistry, error) {
	if path == "" {
		for _, candidate := range []string{"mcp.json", "../mcp.json"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return &FileRegistry{servers: map[string]ServerEntry{}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileRegistry{servers: map[string]ServerEntry{}}, nil
		}
		return nil, fmt.Errorf("load registry: %w", err)
	}

	var cfg mcpConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}

	servers := make(map[string]ServerEntry, len(cfg.Servers))
	for name, s := range cfg.Servers {
		if s.URL == "" {
			continue
		}
		servers[name] = ServerEntry{Name: name, URL: s.URL}
	}
	return &FileRegistry{servers: servers}, nil
}

func (r *FileRegistry) GetServer(_ context.Context, name string) (*ServerEntry, error) {
	entry, ok := r.servers[name]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *FileRegistry) ListServers(_ context.Context) ([]ServerEntry, error) {
	entries := make([]ServerEntry, 0, len(r.servers))
	for _, e := range r.servers {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Len reports the number of configured servers.
func (r *FileRegistry) Len() int { return len(r.servers) }
