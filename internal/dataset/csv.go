package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/revops/internal/crm"
)

// CSVSource reads <Dir>/<kind>.csv for every table kind. Empty cells are
// null.
type CSVSource struct {
	Dir string
}

func (s CSVSource) Describe() string { return "csv:" + s.Dir }

// Load reads all tables concurrently. A missing passthrough file is skipped;
// a missing core file is an error.
func (s CSVSource) Load(ctx context.Context) (map[crm.Kind]crm.Table, error) {
	results := make([]*crm.Table, len(crm.AllKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range crm.AllKinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(s.Dir, string(kind)+".csv")
			t, err := ReadCSVFile(kind, path)
			if errors.Is(err, os.ErrNotExist) && !Required(kind) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[crm.Kind]crm.Table, len(results))
	for _, t := range results {
		if t != nil {
			out[t.Kind] = *t
		}
	}
	return out, nil
}

// ReadCSVFile reads one table from a CSV file with a header row.
func ReadCSVFile(kind crm.Kind, path string) (crm.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return crm.Table{}, fmt.Errorf("reading %s: %w", kind, err)
	}
	defer f.Close()

	t, err := ReadCSV(kind, f)
	if err != nil {
		return crm.Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header row followed by records. Short rows are padded
// with nulls.
func ReadCSV(kind crm.Kind, r io.Reader) (crm.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return crm.NewTable(kind, nil), nil
	}
	if err != nil {
		return crm.Table{}, fmt.Errorf("header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := crm.NewTable(kind, header)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return crm.Table{}, fmt.Errorf("record %d: %w", t.Len()+1, err)
		}
		rec := make(crm.Record, len(header))
		for i, col := range header {
			if i < len(row) && row[i] != "" {
				rec[col] = row[i]
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
