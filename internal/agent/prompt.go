package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/revops/internal/assemble"
)

// SystemInstruction is sent as the system message of every completion.
const SystemInstruction = "You are a helpful CRM and RevOps assistant."

// unresolvedLabel stands in for the opportunity name when the question
// did not resolve.
const unresolvedLabel = "none"

// BuildPrompt renders the user prompt for one question. Group and activity
// records are serialized as JSON arrays of flat objects in column order.
func BuildPrompt(c assemble.Context, question string) (string, error) {
	group, err := json.Marshal(c.Group)
	if err != nil {
		return "", fmt.Errorf("encoding buying group: %w", err)
	}
	acts, err := json.Marshal(c.Activities)
	if err != nil {
		return "", fmt.Errorf("encoding activities: %w", err)
	}

	opp := c.Opportunity
	if opp == "" {
		opp = unresolvedLabel
	}

	parts := []string{
		"You are an AI assistant helping a RevOps team analyze CRM data.",
		"The user is asking a question about the buying group for an opportunity.",
		"The buying group typically includes roles like Decision Maker, Champion, End User, Finance, and Procurement.",
		fmt.Sprintf("Here is the buying group for the opportunity '%s' (if found):\n%s", opp, group),
		fmt.Sprintf("Here are the sales activities involving those contacts:\n%s", acts),
		fmt.Sprintf("Now, based on the question below and the data above, provide an analysis or answer:\n\n%s", question),
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}
