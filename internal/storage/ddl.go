package storage

import (
	"context"
	"fmt"
	"strings"
)

// ColumnDef describes one destination column.
type ColumnDef struct {
	Name string
	Kind ColumnKind
}

// BuildCreateTableSQL returns a CREATE TABLE statement for table in d's
// flavour:
//
//	CREATE TABLE "casos" (
//	  "sexo" TEXT,
//	  "edad" INTEGER
//	)
func BuildCreateTableSQL(d Dialect, table string, cols []ColumnDef) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("%s ddl: table name must not be empty", d.Name())
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name())
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name(), table)
		}
		defs = append(defs, d.QuoteIdent(name)+" "+d.MapType(c.Kind))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteIdent(table), strings.Join(defs, ",\n  ")), nil
}

// BuildDropTableSQL returns a DROP TABLE IF EXISTS statement.
func BuildDropTableSQL(d Dialect, table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

// RecreateTable drops table (when present) and creates it again from cols.
func RecreateTable(ctx context.Context, repo Repository, table string, cols []ColumnDef) error {
	d := repo.Dialect()
	create, err := BuildCreateTableSQL(d, table, cols)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, BuildDropTableSQL(d, table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if err := repo.Exec(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
