package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/logging"
	"github.com/soyeahso/revops/internal/store"
)

var fixtureCSV = map[string]string{
	"contacts.csv": "Contact ID,Full Name,Title,Account ID\n" +
		"C1,Ada Park,VP Engineering,A1\n" +
		"C2,Ben Ortiz,CFO,A1\n",
	"accounts.csv": "Account ID,Company Name,Industry\n" +
		"A1,Acme Corp,Manufacturing\n" +
		"A2,Globex,Energy\n",
	"deals.csv": "Opportunity ID,Opportunity Name,Stage,Account ID\n" +
		" 101 ,Acme Corp - Platform Deal,Proposal,A1\n" +
		"102,Globex Renewal,Negotiation,A2\n",
	"sales_activities.csv": "Contact ID,Activity Type,Date,Summary\n" +
		"C1,Meeting,2025-01-10,Demo\n" +
		"C2,Call,2025-01-12,\"Budget review, Q1\"\n" +
		"C9,Email,2025-01-13,Unrelated\n",
	"contact_deal_roles.csv": "Contact ID,Opportunity ID,Role,Is Primary\n" +
		"C1,101,Champion,true\n" +
		"C2,101,Finance,false\n",
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func testLogger() *logging.Logger { return logging.New(nil, "silent") }

// --- CSV ---

func TestReadCSV(t *testing.T) {
	in := "\ufeffContact ID, Full Name ,Email\nC1,Ada Park,\nC2\n"
	tbl, err := ReadCSV(crm.Contacts, strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Contact ID", "Full Name", "Email"}, tbl.Columns)
	want := []crm.Record{
		{"Contact ID": "C1", "Full Name": "Ada Park"},
		{"Contact ID": "C2"},
	}
	if diff := cmp.Diff(want, tbl.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	tbl, err := ReadCSV(crm.Contacts, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns)
}

func TestCSVSource_Load(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)

	tables, err := CSVSource{Dir: dir}.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, tables, 5, "absent passthrough files are skipped")
	assert.Equal(t, 2, tables[crm.Accounts].Len())
	assert.Equal(t, "Budget review, Q1", tables[crm.SalesActivities].Records[1]["Summary"])
	assert.Equal(t, crm.Deals, tables[crm.Deals].Kind)
}

func TestCSVSource_MissingCoreTable(t *testing.T) {
	files := make(map[string]string)
	for k, v := range fixtureCSV {
		files[k] = v
	}
	delete(files, "deals.csv")
	dir := writeFixture(t, files)

	_, err := CSVSource{Dir: dir}.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCSVSource_Describe(t *testing.T) {
	assert.Equal(t, "csv:data", CSVSource{Dir: "data"}.Describe())
}

// --- Dataset ---

func TestOpen_NormalizesAndMemoizes(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)

	ds, err := Open(context.Background(), CSVSource{Dir: dir}, testLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, ds.LoadID)

	deals := ds.Table(crm.Deals)
	assert.Equal(t, "101", deals.Records[0].Value(crm.ColOpportunityID))
	assert.True(t, ds.Table(crm.Accounts).HasColumn(crm.ColAccountName))
	assert.Equal(t, 0, ds.Table(crm.MarketingTouchpoints).Len())

	view := ds.View()
	assert.Equal(t, 2, view.Len())
	assert.Same(t, &ds.View().Records[0], &view.Records[0], "view is computed once per load")
	assert.Same(t, ds.Resolver(), ds.Resolver())

	assert.Equal(t, []string{"Acme Corp - Platform Deal"}, ds.OpportunityNames())
	assert.Equal(t, 3, ds.Counts()[crm.SalesActivities])
}

func TestDataset_Context(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)
	ds, err := Open(context.Background(), CSVSource{Dir: dir}, testLogger())
	require.NoError(t, err)

	ctx, m, ok := ds.Context("Who is on the Acme Corp deal?")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp - Platform Deal", m.OpportunityName)
	assert.Equal(t, 2, ctx.Group.Len())
	require.Equal(t, 2, ctx.Activities.Len())
	assert.Equal(t, "Demo", ctx.Activities.Records[0].Value(crm.ColSummary))

	ctx, _, ok = ds.Context("hello world")
	assert.False(t, ok)
	assert.Equal(t, 0, ctx.Group.Len())
	assert.Equal(t, 0, ctx.Activities.Len())
}

func TestNew_SchemaMismatch(t *testing.T) {
	raw := map[crm.Kind]crm.Table{
		crm.Contacts:        {Columns: []string{"Contact ID"}},
		crm.Accounts:        {Columns: []string{"Account ID"}},
		crm.Deals:           {Columns: []string{"Opportunity ID", "Opportunity Name", "Account ID"}},
		crm.SalesActivities: {Columns: []string{"Contact ID"}},
		crm.Roles:           {Columns: []string{"Contact ID", "Opportunity ID", "Role"}},
	}
	_, err := New("test", raw)
	var mismatch *crm.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, crm.Accounts, mismatch.Table)
	assert.Equal(t, "Company Name", mismatch.Column)
}

func TestNew_MissingCoreTable(t *testing.T) {
	_, err := New("test", map[crm.Kind]crm.Table{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing table contacts")
}

func TestHolder_Reload(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)
	h := NewHolder(CSVSource{Dir: dir}, testLogger())

	first, err := h.Current(context.Background())
	require.NoError(t, err)
	again, err := h.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"),
		[]byte("Account ID,Company Name\nA2,Globex\n"), 0o600))
	reloaded, err := h.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.LoadID, reloaded.LoadID)

	current, err := h.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, reloaded, current)
}

func TestHolder_ReloadFailureKeepsCurrent(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)
	h := NewHolder(CSVSource{Dir: dir}, testLogger())
	first, err := h.Current(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "contacts.csv")))
	_, err = h.Reload(context.Background())
	require.Error(t, err)

	current, err := h.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
}

// --- SQL ---

func TestSQLSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM datasets").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ds-1"))
	mock.ExpectQuery("SELECT kind, name FROM raw_columns").
		WithArgs("ds-1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "name"}).
			AddRow("accounts", "Account ID").
			AddRow("accounts", "Company Name").
			AddRow("contact_deal_roles", "Contact ID"))
	mock.ExpectQuery("SELECT kind, data FROM raw_rows").
		WithArgs("ds-1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "data"}).
			AddRow("accounts", `{"Account ID":"A1","Company Name":"Acme Corp"}`).
			AddRow("accounts", `{"Account ID":"A2"}`).
			AddRow("contact_deal_roles", `{"Contact ID":"C1"}`))

	src := SQLSource{DB: db, Dialect: store.SQLite}
	tables, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	accounts := tables[crm.Accounts]
	assert.Equal(t, []string{"Account ID", "Company Name"}, accounts.Columns)
	want := []crm.Record{
		{"Account ID": "A1", "Company Name": "Acme Corp"},
		{"Account ID": "A2"},
	}
	if diff := cmp.Diff(want, accounts.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, tables[crm.Roles].Len())
	assert.Equal(t, "sqlite:latest", src.Describe())
}

func TestSQLSource_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`raw_columns WHERE dataset_id = \$1`).
		WithArgs("ds-9").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "name"}).AddRow("accounts", "Account ID"))
	mock.ExpectQuery(`raw_rows WHERE dataset_id = \$1`).
		WithArgs("ds-9").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "data"}))

	src := SQLSource{DB: db, Dialect: store.Postgres, DatasetID: "ds-9"}
	tables, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, tables[crm.Accounts].Len())
	assert.Equal(t, "postgres:ds-9", src.Describe())
}

func TestSQLSource_NoDataset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM datasets").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = SQLSource{DB: db, Dialect: store.SQLite}.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNoDataset)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_RoundTripThroughStore(t *testing.T) {
	dir := writeFixture(t, fixtureCSV)
	raw, err := CSVSource{Dir: dir}.Load(context.Background())
	require.NoError(t, err)

	db, err := store.Open(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	info, err := db.Import(context.Background(), "csv:"+dir, raw)
	require.NoError(t, err)

	src := SQLSource{DB: db.SQL(), Dialect: db.Dialect(), DatasetID: info.ID}
	ds, err := Open(context.Background(), src, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp - Platform Deal"}, ds.OpportunityNames())
	assert.Equal(t, 3, ds.Table(crm.SalesActivities).Len())
}
