package resolve

import (
	"strings"

	"github.com/soyeahso/revops/internal/crm"
)

// MatchedBy records which scan produced a match.
type MatchedBy string

const (
	ByAccountName     MatchedBy = "account_name"
	ByOpportunityName MatchedBy = "opportunity_name"
)

// Match is a resolved opportunity.
type Match struct {
	OpportunityName string    `json:"opportunityName"`
	OpportunityID   string    `json:"opportunityId"`
	AccountID       string    `json:"accountId,omitempty"`
	MatchedBy       MatchedBy `json:"matchedBy"`
}

type candidate struct {
	key string // normalized name
	rec crm.Record
}

// Resolver scans accounts and deals in table order for a name contained in
// the question. Names are normalized once, at construction.
type Resolver struct {
	accounts []candidate
	deals    []candidate
}

// NewResolver prepares a resolver over normalized accounts and deals tables.
// Rows whose name normalizes to "" can never match and are skipped.
func NewResolver(accounts, deals crm.Table) *Resolver {
	r := &Resolver{}
	for _, rec := range accounts.Records {
		if key := NormalizeCell(rec.Get(crm.ColAccountName)); key != "" {
			r.accounts = append(r.accounts, candidate{key: key, rec: rec})
		}
	}
	for _, rec := range deals.Records {
		if key := NormalizeCell(rec.Get(crm.ColOpportunityName)); key != "" {
			r.deals = append(r.deals, candidate{key: key, rec: rec})
		}
	}
	return r
}

// Resolve returns the first opportunity the question refers to.
//
// Accounts are scanned first: the first account whose normalized name is a
// substring of the normalized question yields its first deal in table order.
// An account without deals does not stop the scan. If no account produces a
// deal, deals are scanned for a normalized opportunity name contained in the
// question. No match is reported as ok == false.
func (r *Resolver) Resolve(question string) (Match, bool) {
	q := Normalize(question)
	if q == "" {
		return Match{}, false
	}

	for _, acct := range r.accounts {
		if !strings.Contains(q, acct.key) {
			continue
		}
		accountID, ok := acct.rec.Get(crm.ColAccountID)
		if !ok {
			continue
		}
		if deal, ok := r.firstDealFor(accountID); ok {
			return toMatch(deal, ByAccountName), true
		}
	}

	for _, deal := range r.deals {
		if strings.Contains(q, deal.key) {
			return toMatch(deal.rec, ByOpportunityName), true
		}
	}
	return Match{}, false
}

func (r *Resolver) firstDealFor(accountID string) (crm.Record, bool) {
	for _, deal := range r.deals {
		if id, ok := deal.rec.Get(crm.ColAccountID); ok && id == accountID {
			return deal.rec, true
		}
	}
	return nil, false
}

func toMatch(deal crm.Record, by MatchedBy) Match {
	return Match{
		OpportunityName: deal.Value(crm.ColOpportunityName),
		OpportunityID:   deal.Value(crm.ColOpportunityID),
		AccountID:       deal.Value(crm.ColAccountID),
		MatchedBy:       by,
	}
}

// ResolveOpportunity is a one-shot form of NewResolver(...).Resolve(query)
// returning only the opportunity name.
func ResolveOpportunity(query string, accounts, deals crm.Table) (string, bool) {
	m, ok := NewResolver(accounts, deals).Resolve(query)
	return m.OpportunityName, ok
}
