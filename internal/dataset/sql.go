package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/store"
)

// SQLSource reads tables previously stored by store.DB.Import. An empty
// DatasetID selects the most recent import.
type SQLSource struct {
	DB        *sql.DB
	Dialect   store.Dialect
	DatasetID string
}

func (s SQLSource) Describe() string {
	id := s.DatasetID
	if id == "" {
		id = "latest"
	}
	return string(s.Dialect) + ":" + id
}

func (s SQLSource) Load(ctx context.Context) (map[crm.Kind]crm.Table, error) {
	id, err := s.datasetID(ctx)
	if err != nil {
		return nil, err
	}

	tables, err := s.loadColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadRows(ctx, id, tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s SQLSource) datasetID(ctx context.Context) (string, error) {
	if s.DatasetID != "" {
		return s.DatasetID, nil
	}
	var id string
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM datasets ORDER BY imported_at DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNoDataset
	}
	if err != nil {
		return "", fmt.Errorf("finding latest dataset: %w", err)
	}
	return id, nil
}

func (s SQLSource) loadColumns(ctx context.Context, id string) (map[crm.Kind]crm.Table, error) {
	rows, err := s.DB.QueryContext(ctx,
		store.Rebind(s.Dialect, "SELECT kind, name FROM raw_columns WHERE dataset_id = ? ORDER BY kind, col_index"), id)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	tables := make(map[crm.Kind]crm.Table)
	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		k := crm.Kind(kind)
		t, ok := tables[k]
		if !ok {
			t = crm.NewTable(k, nil)
		}
		t.Columns = append(t.Columns, name)
		tables[k] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", id, store.ErrNoDataset)
	}
	return tables, nil
}

func (s SQLSource) loadRows(ctx context.Context, id string, tables map[crm.Kind]crm.Table) error {
	rows, err := s.DB.QueryContext(ctx,
		store.Rebind(s.Dialect, "SELECT kind, data FROM raw_rows WHERE dataset_id = ? ORDER BY kind, row_index"), id)
	if err != nil {
		return fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, data string
		if err := rows.Scan(&kind, &data); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		var rec crm.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return fmt.Errorf("decoding %s row: %w", kind, err)
		}
		k := crm.Kind(kind)
		t, ok := tables[k]
		if !ok {
			return fmt.Errorf("row for %s has no column list", kind)
		}
		t.Records = append(t.Records, rec)
		tables[k] = t
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	return nil
}
