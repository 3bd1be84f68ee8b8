// Package registry maps logical server names to connection addresses.
// The file registry reads an mcp.json discovered in the working
// directory or its parent; deployments that manage servers centrally can
// use the Postgres-backed registry instead.
package registry

import "context"

// ServerEntry is one configured MCP server.
type ServerEntry struct {
	Name string
	URL  string
}

// ServerRegistry resolves server names to addresses.
type ServerRegistry interface {
	// GetServer returns the entry for a name, or nil if unknown.
	GetServer(ctx context.Context, name string) (*ServerEntry, error)
	// ListServers returns all configured servers.
	ListServers(ctx context.Context) ([]ServerEntry, error)
}
