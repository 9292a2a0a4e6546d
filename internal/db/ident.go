package db

import "strings"

// QuoteIdent backtick-quotes a database, table, or column name for safe
// interpolation into statement text. Embedded backticks are doubled.
// Identifiers cannot be parameter-bound; this is the only code path that
// may splice caller input into SQL, and it must never be used for values.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QualifyTable renders `database`.`table`, or just `table` when no
// database is given.
func QualifyTable(database, table string) string {
	if database == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(database) + "." + QuoteIdent(table)
}
