package mcp

import (
	"context"
	"fmt"

	"github.com/hazyhaar/mariadb-mcp/internal/db"
	"github.com/hazyhaar/mariadb-mcp/internal/render"
)

func (d Deps) listDatabases(ctx context.Context, _ map[string]any) (string, error) {
	rows, err := d.Executor.Query(ctx, "SHOW DATABASES")
	if err != nil {
		return fmt.Sprintf("Error listing databases: %v", err), err
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Text("Database")
	}
	return fmt.Sprintf("Available databases (%d):\n%s", len(names), render.Bullets(names)), nil
}

func (d Deps) listTables(ctx context.Context, args map[string]any) (string, error) {
	database := stringArg(args, "database")

	stmt := "SHOW TABLES"
	if database != "" {
		stmt = "SHOW TABLES FROM " + db.QuoteIdent(database)
	}
	rows, err := d.Executor.Query(ctx, stmt)
	if err != nil {
		return fmt.Sprintf("Error listing tables: %v", err), err
	}

	dbName := database
	if dbName == "" {
		dbName = "current database"
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No tables found in %s", dbName), nil
	}

	// The single result column is named Tables_in_<database>.
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.FirstText()
	}
	return fmt.Sprintf("Tables in %s (%d):\n%s", dbName, len(names), render.Bullets(names)), nil
}

func (d Deps) getTableSchema(ctx context.Context, args map[string]any) (string, error) {
	table := stringArg(args, "table_name")
	if table == "" {
		err := fmt.Errorf("table_name is required")
		return fmt.Sprintf("Error getting table schema: %v", err), err
	}
	database := stringArg(args, "database")

	cols, err := d.Executor.Query(ctx, "DESCRIBE "+db.QualifyTable(database, table))
	if err != nil {
		return fmt.Sprintf("Error getting table schema: %v", err), err
	}
	if len(cols) == 0 {
		return fmt.Sprintf("Table '%s' not found", table), nil
	}

	// The table name in SHOW TABLE STATUS is a LIKE pattern, i.e. a value,
	// so it is parameter-bound rather than spliced into the statement.
	statusStmt := "SHOW TABLE STATUS LIKE ?"
	if database != "" {
		statusStmt = "SHOW TABLE STATUS FROM " + db.QuoteIdent(database) + " LIKE ?"
	}
	statusRows, err := d.Executor.Query(ctx, statusStmt, table)
	if err != nil {
		return fmt.Sprintf("Error getting table schema: %v", err), err
	}
	var status *db.Row
	if len(statusRows) > 0 {
		status = &statusRows[0]
	}

	return render.SchemaTable(table, cols, status), nil
}

func (d Deps) executeSQL(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		err := fmt.Errorf("query is required")
		return fmt.Sprintf("Error executing SQL: %v", err), err
	}

	if err := db.Classify(query); err != nil {
		return "Error: Only read-only queries (SELECT, SHOW, DESCRIBE, EXPLAIN) are allowed", err
	}

	rows, err := d.Executor.QueryOn(ctx, stringArg(args, "database"), query)
	if err != nil {
		return fmt.Sprintf("Error executing SQL: %v", err), err
	}
	if len(rows) == 0 {
		return "Query executed successfully. No results returned.", nil
	}

	return "Query Results:\n\n" + render.Table(rows), nil
}

func (d Deps) reloadConfig(ctx context.Context, _ map[string]any) (string, error) {
	// Drain the old pool first, then refresh the snapshot; the next
	// database operation reconnects against the new configuration.
	if err := d.Gateway.Reconfigure(ctx); err != nil {
		return fmt.Sprintf("Error reloading configuration: %v", err), err
	}
	if err := d.Holder.Reload(); err != nil {
		return fmt.Sprintf("Error reloading configuration: %v", err), err
	}
	d.Log.Info().Msg("configuration reloaded")
	return "Configuration reloaded successfully. New connection will be established on next database operation.", nil
}
