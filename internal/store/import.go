package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/revops/internal/crm"
)

// ErrNoDataset is returned when nothing has been imported yet.
var ErrNoDataset = errors.New("no dataset imported")

// importedAtLayout is fixed-width so imported_at sorts as text.
const importedAtLayout = "2006-01-02T15:04:05.000000000Z"

// DatasetInfo describes one import.
type DatasetInfo struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"importedAt"`
}

// Import stores raw tables as a new dataset in one transaction and returns
// its id. Null cells are omitted from the stored row objects.
func (db *DB) Import(ctx context.Context, source string, tables map[crm.Kind]crm.Table) (DatasetInfo, error) {
	info := DatasetInfo{
		ID:         uuid.New().String(),
		Source:     source,
		ImportedAt: time.Now().UTC(),
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return DatasetInfo{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		db.rebind("INSERT INTO datasets (id, source, imported_at) VALUES (?, ?, ?)"),
		info.ID, info.Source, info.ImportedAt.Format(importedAtLayout),
	); err != nil {
		return DatasetInfo{}, fmt.Errorf("inserting dataset: %w", err)
	}

	kinds := make([]string, 0, len(tables))
	for k := range tables {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		t := tables[crm.Kind(k)]
		if err := db.importTable(ctx, tx, info.ID, t); err != nil {
			return DatasetInfo{}, fmt.Errorf("importing %s: %w", k, err)
		}
		db.log.Debug().Str("kind", k).Int("records", t.Len()).Msg("table imported")
	}

	if err := tx.Commit(); err != nil {
		return DatasetInfo{}, fmt.Errorf("commit import: %w", err)
	}
	db.log.Info().Str("datasetId", info.ID).Str("source", source).Int("tables", len(tables)).Msg("dataset imported")
	return info, nil
}

func (db *DB) importTable(ctx context.Context, tx *sql.Tx, datasetID string, t crm.Table) error {
	colStmt, err := tx.PrepareContext(ctx, db.rebind("INSERT INTO raw_columns (dataset_id, kind, col_index, name) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("preparing columns: %w", err)
	}
	defer colStmt.Close()
	for i, c := range t.Columns {
		if _, err := colStmt.ExecContext(ctx, datasetID, string(t.Kind), i, c); err != nil {
			return fmt.Errorf("inserting column %q: %w", c, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, db.rebind("INSERT INTO raw_rows (dataset_id, kind, row_index, data) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("preparing rows: %w", err)
	}
	defer rowStmt.Close()
	for i, r := range t.Records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
		if _, err := rowStmt.ExecContext(ctx, datasetID, string(t.Kind), i, string(data)); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}
	return nil
}

// Datasets lists imports, newest first.
func (db *DB) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT id, source, imported_at FROM datasets ORDER BY imported_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		var importedAt string
		if err := rows.Scan(&info.ID, &info.Source, &importedAt); err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		info.ImportedAt, _ = time.Parse(importedAtLayout, importedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Latest returns the most recent import.
func (db *DB) Latest(ctx context.Context) (DatasetInfo, error) {
	all, err := db.Datasets(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	if len(all) == 0 {
		return DatasetInfo{}, ErrNoDataset
	}
	return all[0], nil
}

// Prune deletes every dataset except the newest keep imports.
func (db *DB) Prune(ctx context.Context, keep int) (int, error) {
	all, err := db.Datasets(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) <= keep {
		return 0, nil
	}
	removed := 0
	for _, info := range all[keep:] {
		if _, err := db.sql.ExecContext(ctx, db.rebind("DELETE FROM raw_rows WHERE dataset_id = ?"), info.ID); err != nil {
			return removed, fmt.Errorf("deleting rows of %s: %w", info.ID, err)
		}
		if _, err := db.sql.ExecContext(ctx, db.rebind("DELETE FROM raw_columns WHERE dataset_id = ?"), info.ID); err != nil {
			return removed, fmt.Errorf("deleting columns of %s: %w", info.ID, err)
		}
		if _, err := db.sql.ExecContext(ctx, db.rebind("DELETE FROM datasets WHERE id = ?"), info.ID); err != nil {
			return removed, fmt.Errorf("deleting dataset %s: %w", info.ID, err)
		}
		removed++
	}
	db.log.Info().Int("removed", removed).Msg("datasets pruned")
	return removed, nil
}
