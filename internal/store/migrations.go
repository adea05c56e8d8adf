package store

// migration is a single schema step. SQL must run unchanged on both sqlite
// and postgres.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create datasets",
		SQL: `
			CREATE TABLE datasets (
				id          TEXT PRIMARY KEY,
				source      TEXT NOT NULL,
				imported_at TEXT NOT NULL
			);

			CREATE INDEX idx_datasets_imported ON datasets (imported_at);
		`,
	},
	{
		Version: 2,
		Name:    "create raw tables",
		SQL: `
			CREATE TABLE raw_columns (
				dataset_id  TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
				kind        TEXT NOT NULL,
				col_index   INTEGER NOT NULL,
				name        TEXT NOT NULL,
				PRIMARY KEY (dataset_id, kind, col_index)
			);

			CREATE TABLE raw_rows (
				dataset_id  TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
				kind        TEXT NOT NULL,
				row_index   INTEGER NOT NULL,
				data        TEXT NOT NULL,
				PRIMARY KEY (dataset_id, kind, row_index)
			);
		`,
	},
}
