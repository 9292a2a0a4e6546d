// Package render turns ordered result rows into the fixed-width text the
// MCP tools hand back to the agent. Rendering never fails; malformed or
// absent input degrades to a "no rows" message.
package render

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/mariadb-mcp/internal/db"
)

// MaxRows caps how many data rows appear in a rendered table. Rows past
// the cap are summarized by a truncation note; the footer always carries
// the full count.
const MaxRows = 100

// Table renders rows as a fixed-width table: header of column names, a
// separator of dashes sized to each column name's length (not the widest
// value — a cosmetic limitation, not data loss), then up to MaxRows data
// rows, a truncation note when applicable, and a total-row-count footer.
func Table(rows []db.Row) string {
	if len(rows) == 0 {
		return "No rows returned"
	}

	cols := rows[0].Columns()
	if len(cols) == 0 {
		return "No rows returned"
	}

	var b strings.Builder

	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")

	dashes := make([]string, len(cols))
	for i, c := range cols {
		dashes[i] = strings.Repeat("-", len(c))
	}
	b.WriteString(strings.Join(dashes, " | "))
	b.WriteString("\n")

	shown := rows
	if len(shown) > MaxRows {
		shown = shown[:MaxRows]
	}
	for _, row := range shown {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = row.Text(c)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}

	if len(rows) > MaxRows {
		fmt.Fprintf(&b, "\n... and %d more rows (truncated for display)", len(rows)-MaxRows)
	}
	fmt.Fprintf(&b, "\nTotal rows: %d", len(rows))

	return b.String()
}

// Bullets renders one "- item" line per item.
func Bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}

// schemaColumns is the DESCRIBE column order for the pipe table.
var schemaColumns = []string{"Field", "Type", "Null", "Key", "Default", "Extra"}

// SchemaTable renders DESCRIBE output as a Markdown pipe table, followed
// by a table-status info block when status is available.
func SchemaTable(table string, cols []db.Row, status *db.Row) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Schema for table '%s':\n\n", table)
	b.WriteString("| Field | Type | Null | Key | Default | Extra |\n")
	b.WriteString("|-------|------|------|-----|---------|-------|\n")
	for _, row := range cols {
		cells := make([]string, len(schemaColumns))
		for i, c := range schemaColumns {
			// NULL Key/Default/Extra cells render empty, not as "NULL".
			if v, ok := row.Get(c); ok && v != nil {
				cells[i] = db.RenderValue(v)
			}
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}

	if status != nil {
		b.WriteString("\nTable Info:\n")
		fmt.Fprintf(&b, "- Engine: %s\n", statusText(*status, "Engine"))
		fmt.Fprintf(&b, "- Rows: %s\n", statusText(*status, "Rows"))
		fmt.Fprintf(&b, "- Data Length: %s bytes\n", statusText(*status, "Data_length"))
		fmt.Fprintf(&b, "- Auto Increment: %s\n", statusText(*status, "Auto_increment"))
		fmt.Fprintf(&b, "- Create Time: %s\n", statusText(*status, "Create_time"))
		fmt.Fprintf(&b, "- Comment: %s\n", statusText(*status, "Comment"))
	}

	return b.String()
}

func statusText(row db.Row, col string) string {
	v, ok := row.Get(col)
	if !ok || v == nil {
		return "N/A"
	}
	return db.RenderValue(v)
}
