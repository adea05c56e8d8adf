// Package assemble builds the bounded context payload for a resolved
// opportunity: its buying-group rows and the sales activities of the
// contacts in that group.
package assemble

import (
	"strings"

	"github.com/soyeahso/revops/internal/crm"
)

// Context is the assembled payload. Group and Activities are always
// non-nil tables, empty when nothing was resolved.
type Context struct {
	Opportunity string    `json:"opportunity,omitempty"`
	Group       crm.Table `json:"group"`
	Activities  crm.Table `json:"activities"`
}

// Resolved reports whether the context was built for an opportunity.
func (c Context) Resolved() bool { return c.Opportunity != "" }

// ContactIDs returns the distinct contact ids of the group rows in order of
// first appearance.
func (c Context) ContactIDs() []string {
	return distinct(c.Group, crm.ColContactID)
}

// Assemble selects the view rows whose opportunity_name equals opportunity
// (case-insensitive, exact) and the activities whose contact_id belongs to
// one of those rows. An empty opportunity yields empty tables.
func Assemble(opportunity string, view crm.View, activities crm.Table) Context {
	ctx := Context{
		Opportunity: opportunity,
		Group:       crm.NewTable(view.Kind, view.Columns),
		Activities:  crm.NewTable(activities.Kind, activities.Columns),
	}
	if opportunity == "" {
		return ctx
	}

	want := strings.ToLower(opportunity)
	ctx.Group = view.Filter(func(r crm.Record) bool {
		name, ok := r.Get(crm.ColOpportunityName)
		return ok && strings.ToLower(name) == want
	})

	members := make(map[string]bool)
	for _, id := range ctx.ContactIDs() {
		members[id] = true
	}
	ctx.Activities = activities.Filter(func(r crm.Record) bool {
		id, ok := r.Get(crm.ColContactID)
		return ok && members[id]
	})
	return ctx
}

func distinct(t crm.Table, col string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range t.Records {
		v, ok := r.Get(col)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
