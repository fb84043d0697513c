package history

import "context"

// Store persists per-supplier history tables.
type Store interface {
	// Load returns the supplier's history, or an empty table when none
	// exists yet.
	Load(ctx context.Context, supplier string) (*Table, error)
	// Save writes the full table.
	Save(ctx context.Context, t *Table) error
}
