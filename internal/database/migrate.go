// internal/database/migrate.go
//
// Minimal forward-only migration runner.
//
// Context
// -------
// Components return plain DDL strings from Migrations().  Migrate records
// each applied statement as (component, seq) in `schema_migration`, so a
// restart skips what already ran and a new statement appended to the list
// runs exactly once.  Statements are never edited in place; append instead.

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const ledgerDDL = `CREATE TABLE IF NOT EXISTS schema_migration (
	component  VARCHAR(64) NOT NULL,
	seq        INT         NOT NULL,
	applied_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (component, seq)
)`

// Migrate applies the statements of component that are not yet recorded.
// It returns how many ran.
func Migrate(ctx context.Context, db *sqlx.DB, component string, stmts []string) (int, error) {
	if len(stmts) == 0 {
		return 0, nil
	}
	if _, err := db.ExecContext(ctx, ledgerDDL); err != nil {
		return 0, fmt.Errorf("migration ledger: %w", err)
	}

	var applied int
	if err := db.GetContext(ctx, &applied,
		db.Rebind(`SELECT COUNT(*) FROM schema_migration WHERE component = ?`), component); err != nil {
		return 0, fmt.Errorf("migration count %s: %w", component, err)
	}

	ran := 0
	for seq := applied; seq < len(stmts); seq++ {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return ran, err
		}
		if _, err := tx.ExecContext(ctx, stmts[seq]); err != nil {
			_ = tx.Rollback()
			return ran, fmt.Errorf("migration %s #%d: %w", component, seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO schema_migration (component, seq) VALUES (?, ?)`), component, seq); err != nil {
			_ = tx.Rollback()
			return ran, fmt.Errorf("migration %s #%d ledger: %w", component, seq, err)
		}
		if err := tx.Commit(); err != nil {
			return ran, err
		}
		ran++
		zap.S().Infow("migration applied", "component", component, "seq", seq)
	}
	return ran, nil
}
