// Package dataset loads the CRM tables from a data store, normalizes them,
// and memoizes the derived buying-group view and resolver for one load.
package dataset

import (
	"context"

	"github.com/soyeahso/revops/internal/crm"
)

// Source supplies raw tables keyed by kind. Column names are the store's
// own headers; normalization happens in Open.
type Source interface {
	Load(ctx context.Context) (map[crm.Kind]crm.Table, error)
	// Describe names the source for logs and dataset records, e.g. "csv:data".
	Describe() string
}

// required are the kinds a source must supply. The remaining kinds are
// passthroughs and may be absent.
var required = map[crm.Kind]bool{
	crm.Contacts:        true,
	crm.Accounts:        true,
	crm.Deals:           true,
	crm.SalesActivities: true,
	crm.Roles:           true,
}

// Required reports whether a source must supply the given kind.
func Required(kind crm.Kind) bool { return required[kind] }
