package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps all suppliers' histories in one local database file.
// Row values are stored as a JSON object per (supplier, date) so supplier
// schemas can differ without migrations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) <dataDir>/history.db.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS schemas (
			supplier TEXT PRIMARY KEY,
			columns TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bills (
			supplier TEXT NOT NULL,
			date TEXT NOT NULL,
			row_values TEXT NOT NULL,
			PRIMARY KEY (supplier, date)
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute init query: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, supplier string) (*Table, error) {
	t := New(supplier, nil)

	var columnsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT columns FROM schemas WHERE supplier = ?`, supplier).Scan(&columnsJSON)
	switch {
	case err == sql.ErrNoRows:
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, row_values FROM bills WHERE supplier = ? ORDER BY date`, supplier)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date, valuesJSON string
		if err := rows.Scan(&date, &valuesJSON); err != nil {
			return nil, err
		}
		row := Row{Date: date, Values: map[string]float64{}}
		if err := json.Unmarshal([]byte(valuesJSON), &row.Values); err != nil {
			return nil, fmt.Errorf("decoding row %s: %w", date, err)
		}
		t.Append(row)
	}
	return t, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, t *Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	columnsJSON, err := json.Marshal(t.Columns)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO schemas (supplier, columns) VALUES (?, ?)`,
		t.Supplier, string(columnsJSON)); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}

	for _, row := range t.Rows {
		valuesJSON, err := json.Marshal(row.Values)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO bills (supplier, date, row_values) VALUES (?, ?, ?)`,
			t.Supplier, row.Date, string(valuesJSON)); err != nil {
			return fmt.Errorf("saving row %s: %w", row.Date, err)
		}
	}
	return tx.Commit()
}
