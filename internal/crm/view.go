package crm

// View is the denormalized buying-group view: exactly one row per role
// assignment, left-joined with its contact and its opportunity.
type View struct {
	Table
}

// Prefixes applied to a joined column whose name is already taken by the
// left side of the join, e.g. the deal's account_id becomes deal_account_id.
const (
	contactColumnPrefix = "contact_"
	dealColumnPrefix    = "deal_"
)

// BuildBuyingGroupView left-joins roles with contacts on contact_id, then
// with deals on opportunity_id. Every role row survives; cells from a
// missing contact or deal are null. When a key occurs more than once on the
// right side, the first record in table order is used so the view never
// gains rows.
func BuildBuyingGroupView(roles, contacts, deals Table) View {
	columns := append([]string{}, roles.Columns...)
	contactCols := joinColumns(&columns, contacts.Columns, ColContactID, contactColumnPrefix)
	dealCols := joinColumns(&columns, deals.Columns, ColOpportunityID, dealColumnPrefix)

	contactsByID := indexFirst(contacts, ColContactID)
	dealsByID := indexFirst(deals, ColOpportunityID)

	view := View{Table: NewTable(BuyingGroup, columns)}
	view.Records = make([]Record, 0, len(roles.Records))
	for _, role := range roles.Records {
		row := role.Clone()
		if id, ok := role.Get(ColContactID); ok {
			copyJoined(row, contactsByID[id], contactCols)
		}
		if id, ok := role.Get(ColOpportunityID); ok {
			copyJoined(row, dealsByID[id], dealCols)
		}
		view.Records = append(view.Records, row)
	}
	return view
}

// OpportunityNames returns the distinct, non-null opportunity names in the
// view in order of first appearance.
func (v View) OpportunityNames() []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, r := range v.Records {
		name, ok := r.Get(ColOpportunityName)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// joinColumns appends the right-hand columns (minus the join key) to
// columns and returns the source->output name mapping. A taken name is
// prefixed until it is unique.
func joinColumns(columns *[]string, right []string, key, prefix string) map[string]string {
	taken := make(map[string]bool, len(*columns))
	for _, c := range *columns {
		taken[c] = true
	}
	mapping := make(map[string]string, len(right))
	for _, c := range right {
		if c == key {
			continue
		}
		name := c
		for taken[name] {
			name = prefix + name
		}
		taken[name] = true
		mapping[c] = name
		*columns = append(*columns, name)
	}
	return mapping
}

func indexFirst(t Table, key string) map[string]Record {
	idx := make(map[string]Record, len(t.Records))
	for _, r := range t.Records {
		id, ok := r.Get(key)
		if !ok {
			continue
		}
		if _, dup := idx[id]; !dup {
			idx[id] = r
		}
	}
	return idx
}

func copyJoined(dst, src Record, mapping map[string]string) {
	if src == nil {
		return
	}
	for from, to := range mapping {
		if v, ok := src.Get(from); ok {
			dst[to] = v
		}
	}
}
