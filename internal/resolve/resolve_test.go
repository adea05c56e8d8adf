package resolve

import (
	"testing"

	"github.com/soyeahso/revops/internal/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme-Corp!", "acmecorp"},
		{"ACME CORP", "acmecorp"},
		{"  Who's in the group? ", "whosinthegroup"},
		{"Q3 2024 / Renewal #2", "q32024renewal2"},
		{"Café Müller", "cafmller"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestNormalize_CaseAndPunctuationInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("Acme-Corp!"), Normalize("ACME CORP"))
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "", NormalizeCell("Anything", false))
	assert.Equal(t, "anything", NormalizeCell("Any-thing", true))
}

func accounts() crm.Table {
	return crm.Table{
		Kind:    crm.Accounts,
		Columns: []string{crm.ColAccountID, crm.ColAccountName},
		Records: []crm.Record{
			{crm.ColAccountID: "A0", crm.ColAccountName: "Initech"}, // no deals
			{crm.ColAccountID: "A1", crm.ColAccountName: "Acme Corp"},
			{crm.ColAccountID: "A2", crm.ColAccountName: "Globex"},
			{crm.ColAccountID: "A3"}, // null name never matches
		},
	}
}

func deals() crm.Table {
	return crm.Table{
		Kind:    crm.Deals,
		Columns: []string{crm.ColOpportunityID, crm.ColOpportunityName, crm.ColAccountID},
		Records: []crm.Record{
			{crm.ColOpportunityID: "O1", crm.ColOpportunityName: "Acme Corp - Platform Deal", crm.ColAccountID: "A1"},
			{crm.ColOpportunityID: "O2", crm.ColOpportunityName: "Acme Corp - Expansion", crm.ColAccountID: "A1"},
			{crm.ColOpportunityID: "O3", crm.ColOpportunityName: "Globex Renewal", crm.ColAccountID: "A2"},
			{crm.ColOpportunityID: "O4", crm.ColOpportunityName: "Hooli Pilot", crm.ColAccountID: "A9"},
		},
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(accounts(), deals())

	tests := []struct {
		name     string
		question string
		wantName string
		wantBy   MatchedBy
		wantOK   bool
	}{
		{
			name:     "account name picks first deal of account",
			question: "Who's in the buying group for Acme Corp?",
			wantName: "Acme Corp - Platform Deal",
			wantBy:   ByAccountName,
			wantOK:   true,
		},
		{
			name:     "account priority over another account's opportunity",
			question: "Compare the Hooli Pilot with what Globex is doing",
			wantName: "Globex Renewal",
			wantBy:   ByAccountName,
			wantOK:   true,
		},
		{
			name:     "first account in table order wins",
			question: "acme corp vs globex",
			wantName: "Acme Corp - Platform Deal",
			wantBy:   ByAccountName,
			wantOK:   true,
		},
		{
			name:     "account without deals falls through to opportunity scan",
			question: "Initech and the hooli-pilot",
			wantName: "Hooli Pilot",
			wantBy:   ByOpportunityName,
			wantOK:   true,
		},
		{
			name:     "opportunity name match ignores punctuation",
			question: "status of HOOLI PILOT?",
			wantName: "Hooli Pilot",
			wantBy:   ByOpportunityName,
			wantOK:   true,
		},
		{
			name:     "no match",
			question: "hello world",
			wantOK:   false,
		},
		{
			name:     "empty question",
			question: "   ",
			wantOK:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.Resolve(tt.question)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Equal(t, Match{}, m)
				return
			}
			assert.Equal(t, tt.wantName, m.OpportunityName)
			assert.Equal(t, tt.wantBy, m.MatchedBy)
		})
	}
}

func TestResolve_ReturnsIdentifiers(t *testing.T) {
	m, ok := NewResolver(accounts(), deals()).Resolve("globex")
	require.True(t, ok)
	assert.Equal(t, "O3", m.OpportunityID)
	assert.Equal(t, "A2", m.AccountID)
}

func TestResolve_EmptyTables(t *testing.T) {
	empty := crm.Table{}
	_, ok := NewResolver(empty, empty).Resolve("Acme Corp")
	assert.False(t, ok)
}

func TestResolveOpportunity(t *testing.T) {
	name, ok := ResolveOpportunity("Who's in the buying group for Acme Corp?", accounts(), deals())
	require.True(t, ok)
	assert.Equal(t, "Acme Corp - Platform Deal", name)

	name, ok = ResolveOpportunity("hello world", accounts(), deals())
	assert.False(t, ok)
	assert.Empty(t, name)
}
