// This file contains test helpers only available during testing.
package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from every table. Intended for use in
// integration tests only; defined in the postgres package so it can reach
// the unexported db field.
func (d *DB) TruncateForTest(ctx context.Context) error {
	for _, table := range []string{"memory_index", "memories", "vault", "profiles"} {
		if _, err := d.db.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("postgres: failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
