// Package crm holds the relational CRM tables the assistant reasons over:
// the source table kinds, their canonical schemas, and the denormalized
// buying-group view built from them.
package crm

// Kind identifies one of the source tables supplied by the data store.
type Kind string

const (
	Contacts               Kind = "contacts"
	Accounts               Kind = "accounts"
	Deals                  Kind = "deals"
	SalesActivities        Kind = "sales_activities"
	MarketingTouchpoints   Kind = "marketing_touchpoints"
	ContactFunnelHistory   Kind = "contact_funnel_history"
	DealFunnelHistory      Kind = "deal_funnel_history"
	Roles                  Kind = "contact_deal_roles"
	BuyingGroupDefinitions Kind = "buying_group_definitions"

	// BuyingGroup is the kind assigned to the derived view.
	BuyingGroup Kind = "buying_group"
)

// AllKinds lists every source table in load order.
var AllKinds = []Kind{
	Contacts,
	Accounts,
	Deals,
	SalesActivities,
	MarketingTouchpoints,
	ContactFunnelHistory,
	DealFunnelHistory,
	Roles,
	BuyingGroupDefinitions,
}

// Canonical column names used by the core.
const (
	ColContactID           = "contact_id"
	ColFullName            = "full_name"
	ColEmail               = "email"
	ColTitle               = "title"
	ColPhone               = "phone"
	ColLocation            = "location"
	ColLastEngagementDate  = "last_engagement_date"
	ColEngagementScore     = "engagement_score"
	ColAccountID           = "account_id"
	ColAccountName         = "account_name"
	ColIndustry            = "industry"
	ColSicNaics            = "sic_naics"
	ColRegion              = "region"
	ColDomain              = "domain"
	ColEmployeeCount       = "employee_count"
	ColAnnualRevenue       = "annual_revenue"
	ColIndustryName        = "industry_name"
	ColOpportunityID       = "opportunity_id"
	ColOpportunityName     = "opportunity_name"
	ColStage               = "stage"
	ColType                = "type"
	ColAmount              = "amount"
	ColCreatedDate         = "created_date"
	ColExpectedCloseDate   = "expected_close_date"
	ColPrimaryContactID    = "primary_contact_id"
	ColPrimaryContactName  = "primary_contact_name"
	ColPrimaryContactTitle = "primary_contact_title"
	ColActivityType        = "activity_type"
	ColActivityDate        = "activity_date"
	ColSummary             = "summary"
	ColRole                = "role"
	ColIsPrimary           = "is_primary"
)

// Record is one row keyed by column name. A column absent from the map is a
// null cell.
type Record map[string]string

// Get returns the cell value and whether it is non-null.
func (r Record) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Value returns the cell value, or "" for a null cell.
func (r Record) Value(col string) string {
	return r[col]
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of records sharing one column list.
type Table struct {
	Kind    Kind
	Columns []string
	Records []Record
}

// NewTable creates an empty table with the given columns.
func NewTable(kind Kind, columns []string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Kind: kind, Columns: cols, Records: []Record{}}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// HasColumn reports whether the table declares the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Filter returns a table with the same columns holding only the records
// for which keep returns true. Record order is preserved.
func (t Table) Filter(keep func(Record) bool) Table {
	out := NewTable(t.Kind, t.Columns)
	for _, r := range t.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
