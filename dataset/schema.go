package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// DefaultTable is the training-point table used when none is configured.
const DefaultTable = "training_points"

const pointsSchema = `
CREATE TABLE IF NOT EXISTS %s (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    label    INTEGER NOT NULL,
    features BLOB NOT NULL
);
`

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureSchema creates the training-point table in the provided database if
// it does not already exist. Rows are read back in id order, which is
// insertion order.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("dataset: invalid table name %q", table)
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(pointsSchema, table))
	return err
}
