// Package mcp registers the MariaDB bridge tools on an MCP server. Every
// failure is converted to descriptive text at this boundary; the MCP
// dispatcher never sees a protocol-level fault from a tool call.
package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/hazyhaar/mariadb-mcp/internal/audit"
	"github.com/hazyhaar/mariadb-mcp/internal/config"
	"github.com/hazyhaar/mariadb-mcp/internal/db"
)

// Deps is the explicit context handed to every tool: configuration holder,
// connection gateway, executor, and the optional audit trail. No
// package-level state.
type Deps struct {
	Holder   *config.Holder
	Gateway  *db.Gateway
	Executor *db.Executor
	Audit    audit.Logger
	Log      zerolog.Logger
}

// NewServer creates an MCPServer with all bridge tools registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"MariaDB MCP Server",
		version,
		server.WithToolCapabilities(true),
	)

	registerListDatabases(srv, deps)
	registerListTables(srv, deps)
	registerGetTableSchema(srv, deps)
	registerExecuteSQL(srv, deps)
	registerReloadConfig(srv, deps)

	return srv
}

// toolFunc is a tool body: the text it returns goes back verbatim as the
// tool result, while the error (if any) only feeds logging and audit.
type toolFunc func(ctx context.Context, args map[string]any) (string, error)

func handle(deps Deps, name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		start := time.Now()

		text, err := fn(ctx, args)
		if err != nil {
			deps.Log.Error().Err(err).Str("tool", name).Msg("tool call failed")
		} else {
			deps.Log.Debug().Str("tool", name).Dur("duration", time.Since(start)).Msg("tool call completed")
		}

		if deps.Audit != nil {
			entry := &audit.Entry{
				Tool:       name,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if params, e := json.Marshal(args); e == nil {
				entry.Parameters = string(params)
			}
			if err != nil {
				entry.Error = err.Error()
			}
			deps.Audit.LogAsync(entry)
		}

		return mcp.NewToolResultText(text), nil
	}
}

func registerListDatabases(srv *server.MCPServer, deps Deps) {
	schema, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tool := mcp.NewToolWithRawSchema("list_databases", "List all accessible databases in the MariaDB server", schema)
	srv.AddTool(tool, handle(deps, "list_databases", deps.listDatabases))
}

func registerListTables(srv *server.MCPServer, deps Deps) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"database": map[string]string{"type": "string", "description": "Database to list tables from (defaults to the current database)"},
		},
	})
	tool := mcp.NewToolWithRawSchema("list_tables", "List all tables in a specific database", schema)
	srv.AddTool(tool, handle(deps, "list_tables", deps.listTables))
}

func registerGetTableSchema(srv *server.MCPServer, deps Deps) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table_name": map[string]string{"type": "string", "description": "Table to describe"},
			"database":   map[string]string{"type": "string", "description": "Database containing the table (defaults to the current database)"},
		},
		"required": []string{"table_name"},
	})
	tool := mcp.NewToolWithRawSchema("get_table_schema", "Get the schema/structure of a specific table", schema)
	srv.AddTool(tool, handle(deps, "get_table_schema", deps.getTableSchema))
}

func registerExecuteSQL(srv *server.MCPServer, deps Deps) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":    map[string]string{"type": "string", "description": "Read-only SQL statement (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH)"},
			"database": map[string]string{"type": "string", "description": "Database to run the query against (defaults to the current database)"},
		},
		"required": []string{"query"},
	})
	tool := mcp.NewToolWithRawSchema("execute_sql", "Execute a read-only SQL query and return results", schema)
	srv.AddTool(tool, handle(deps, "execute_sql", deps.executeSQL))
}

func registerReloadConfig(srv *server.MCPServer, deps Deps) {
	schema, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tool := mcp.NewToolWithRawSchema("reload_config", "Reload configuration from environment variables and config file", schema)
	srv.AddTool(tool, handle(deps, "reload_config", deps.reloadConfig))
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
