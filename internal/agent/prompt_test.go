package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/revops/internal/assemble"
	"github.com/soyeahso/revops/internal/crm"
)

func TestBuildPrompt(t *testing.T) {
	c := assemble.Context{
		Opportunity: "Acme Corp - Platform Deal",
		Group: crm.Table{
			Columns: []string{crm.ColContactID, crm.ColRole, crm.ColFullName},
			Records: []crm.Record{{crm.ColContactID: "C1", crm.ColRole: "Champion"}},
		},
		Activities: crm.NewTable(crm.SalesActivities, []string{crm.ColContactID}),
	}

	got, err := BuildPrompt(c, "Who is the champion?")
	require.NoError(t, err)

	parts := strings.Split(strings.TrimSuffix(got, "\n"), "\n\n")
	require.Len(t, parts, 7)
	assert.Equal(t, "You are an AI assistant helping a RevOps team analyze CRM data.", parts[0])
	assert.Equal(t, "The buying group typically includes roles like Decision Maker, Champion, End User, Finance, and Procurement.", parts[2])
	assert.Equal(t,
		"Here is the buying group for the opportunity 'Acme Corp - Platform Deal' (if found):\n"+
			`[{"contact_id":"C1","role":"Champion","full_name":null}]`,
		parts[3])
	assert.Equal(t, "Here are the sales activities involving those contacts:\n[]", parts[4])
	assert.Equal(t, "Now, based on the question below and the data above, provide an analysis or answer:", parts[5])
	assert.Equal(t, "Who is the champion?", parts[6])
}

func TestBuildPrompt_Unresolved(t *testing.T) {
	got, err := BuildPrompt(assemble.Assemble("", crm.View{}, crm.Table{}), "hello world")
	require.NoError(t, err)
	assert.Contains(t, got, "for the opportunity 'none' (if found):\n[]\n")
	assert.True(t, strings.HasSuffix(got, "hello world\n"))
}
