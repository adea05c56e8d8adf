package crm

import (
	"fmt"
	"strings"
)

// SchemaMismatchError is returned when a raw table lacks a column the core
// depends on.
type SchemaMismatchError struct {
	Table  Kind
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: table %s is missing required column %q", e.Table, e.Column)
}

// ColumnMapping renames one raw source column to its canonical name.
type ColumnMapping struct {
	Raw       string
	Canonical string
	Required  bool
}

// Schema is the fixed raw-to-canonical mapping for one table kind.
type Schema struct {
	Kind    Kind
	Columns []ColumnMapping
}

// Schemas holds the mapping for every table the core consumes. Kinds without
// an entry are passthrough tables and keep their raw column names.
var Schemas = map[Kind]Schema{
	Contacts: {Kind: Contacts, Columns: []ColumnMapping{
		{Raw: "Contact ID", Canonical: ColContactID, Required: true},
		{Raw: "Full Name", Canonical: ColFullName},
		{Raw: "Email", Canonical: ColEmail},
		{Raw: "Title", Canonical: ColTitle},
		{Raw: "Phone", Canonical: ColPhone},
		{Raw: "Location", Canonical: ColLocation},
		{Raw: "Last Engagement Date", Canonical: ColLastEngagementDate},
		{Raw: "Engagement Score", Canonical: ColEngagementScore},
		{Raw: "Account ID", Canonical: ColAccountID},
	}},
	Accounts: {Kind: Accounts, Columns: []ColumnMapping{
		{Raw: "Account ID", Canonical: ColAccountID, Required: true},
		{Raw: "Company Name", Canonical: ColAccountName, Required: true},
		{Raw: "Industry", Canonical: ColIndustry},
		{Raw: "NAICS Code", Canonical: ColSicNaics},
		{Raw: "Region", Canonical: ColRegion},
		{Raw: "Domain", Canonical: ColDomain},
		{Raw: "Employee Count", Canonical: ColEmployeeCount},
		{Raw: "Annual Revenue", Canonical: ColAnnualRevenue},
		{Raw: "Industry Name", Canonical: ColIndustryName},
	}},
	Deals: {Kind: Deals, Columns: []ColumnMapping{
		{Raw: "Opportunity ID", Canonical: ColOpportunityID, Required: true},
		{Raw: "Opportunity Name", Canonical: ColOpportunityName, Required: true},
		{Raw: "Stage", Canonical: ColStage},
		{Raw: "Type", Canonical: ColType},
		{Raw: "Amount", Canonical: ColAmount},
		{Raw: "Created Date", Canonical: ColCreatedDate},
		{Raw: "Expected Close Date", Canonical: ColExpectedCloseDate},
		{Raw: "Account ID", Canonical: ColAccountID, Required: true},
		{Raw: "Primary Contact ID", Canonical: ColPrimaryContactID},
		{Raw: "Primary Contact Name", Canonical: ColPrimaryContactName},
		{Raw: "Primary Contact Title", Canonical: ColPrimaryContactTitle},
	}},
	SalesActivities: {Kind: SalesActivities, Columns: []ColumnMapping{
		{Raw: "Contact ID", Canonical: ColContactID, Required: true},
		{Raw: "Activity Type", Canonical: ColActivityType},
		{Raw: "Date", Canonical: ColActivityDate},
		{Raw: "Summary", Canonical: ColSummary},
	}},
	Roles: {Kind: Roles, Columns: []ColumnMapping{
		{Raw: "Contact ID", Canonical: ColContactID, Required: true},
		{Raw: "Opportunity ID", Canonical: ColOpportunityID, Required: true},
		{Raw: "Role", Canonical: ColRole, Required: true},
		{Raw: "Is Primary", Canonical: ColIsPrimary},
	}},
}

// joinKeyKinds are the tables whose opportunity_id is canonicalized before
// any join.
var joinKeyKinds = map[Kind]bool{
	Deals: true,
	Roles: true,
}

// Normalize renames the columns of a raw table to their canonical names
// using the schema registered for its kind. Unmapped raw columns keep their
// names; optional mapped columns absent from the source are added as null
// columns so downstream shapes stay stable. For deals and roles the
// opportunity_id cell is trimmed, and a null id becomes "".
//
// The input table is not modified.
func Normalize(raw Table) (Table, error) {
	schema, ok := Schemas[raw.Kind]
	if !ok {
		return raw, nil
	}

	present := make(map[string]bool, len(raw.Columns))
	for _, c := range raw.Columns {
		present[c] = true
	}

	rename := make(map[string]string, len(schema.Columns))
	for _, m := range schema.Columns {
		if !present[m.Raw] {
			if m.Required {
				return Table{}, &SchemaMismatchError{Table: raw.Kind, Column: m.Raw}
			}
			continue
		}
		rename[m.Raw] = m.Canonical
	}

	columns := make([]string, 0, len(raw.Columns)+len(schema.Columns))
	seen := make(map[string]bool, cap(columns))
	for _, c := range raw.Columns {
		name := c
		if canonical, ok := rename[c]; ok {
			name = canonical
		}
		if !seen[name] {
			columns = append(columns, name)
			seen[name] = true
		}
	}
	for _, m := range schema.Columns {
		if !seen[m.Canonical] {
			columns = append(columns, m.Canonical)
			seen[m.Canonical] = true
		}
	}

	out := NewTable(raw.Kind, columns)
	out.Records = make([]Record, 0, len(raw.Records))
	coerce := joinKeyKinds[raw.Kind]
	for _, r := range raw.Records {
		rec := make(Record, len(r))
		for k, v := range r {
			if canonical, ok := rename[k]; ok {
				k = canonical
			}
			rec[k] = v
		}
		if coerce {
			rec[ColOpportunityID] = strings.TrimSpace(rec[ColOpportunityID])
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}
