// Package mcpserver exposes the buying-group assistant as MCP tools so
// desktop agents can ask questions and inspect assembled context over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/logging"
	"github.com/soyeahso/revops/internal/metrics"
	"github.com/soyeahso/revops/internal/version"
)

// Server holds one conversation session for the lifetime of an MCP
// connection.
type Server struct {
	assistant *agent.Assistant
	session   *conversation.Session
	log       *logging.Logger
}

// New creates a server and starts its session.
func New(assistant *agent.Assistant, log *logging.Logger, opts ...conversation.Option) *Server {
	return &Server{
		assistant: assistant,
		session:   conversation.NewSession(opts...),
		log:       log.Sub("mcp"),
	}
}

// Session returns the server's conversation session.
func (s *Server) Session() *conversation.Session { return s.session }

// MCP builds the MCP server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "revops",
		Version: version.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_buying_group",
		Description: "Answer a question about an opportunity's buying group using the CRM data and the configured language model",
	}, s.AskBuyingGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_buying_group",
		Description: "Resolve the opportunity mentioned in a question and return its buying-group rows and sales activities",
	}, s.GetBuyingGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_opportunities",
		Description: "List the opportunity names that have a buying group",
	}, s.ListOpportunities)

	return server
}

// Run serves on transport until the client disconnects or ctx is done, then
// ends the session.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	metrics.ActiveSessions.WithLabelValues("mcp").Inc()
	defer func() {
		s.session.Close()
		metrics.ActiveSessions.WithLabelValues("mcp").Dec()
		s.log.Debug().Str("sessionId", s.session.ID).Msg("session ended")
	}()

	s.log.Info().Str("sessionId", s.session.ID).Msg("mcp server starting")
	return s.MCP().Run(ctx, transport)
}

type QuestionInput struct {
	Question string `json:"question" jsonschema:"Natural-language question naming an account or opportunity"`
}

type AskOutput struct {
	Answer          string `json:"answer"`
	Opportunity     string `json:"opportunity,omitempty"`
	MatchedBy       string `json:"matched_by,omitempty"`
	GroupRecords    int    `json:"group_records"`
	ActivityRecords int    `json:"activity_records"`
	Timestamp       string `json:"timestamp"`
}

func (s *Server) AskBuyingGroup(ctx context.Context, _ *mcp.CallToolRequest, input QuestionInput) (*mcp.CallToolResult, AskOutput, error) {
	if s.assistant == nil {
		return nil, AskOutput{}, fmt.Errorf("no completion provider configured")
	}
	res, err := s.assistant.Ask(ctx, s.session, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:          res.Interaction.Answer,
		Opportunity:     res.Opportunity,
		MatchedBy:       string(res.MatchedBy),
		GroupRecords:    res.GroupRecords,
		ActivityRecords: res.ActivityRecords,
		Timestamp:       res.Interaction.Timestamp,
	}, nil
}

type GroupOutput struct {
	Resolved      bool             `json:"resolved"`
	Opportunity   string           `json:"opportunity,omitempty"`
	OpportunityID string           `json:"opportunity_id,omitempty"`
	MatchedBy     string           `json:"matched_by,omitempty"`
	ContactIDs    []string         `json:"contact_ids"`
	Group         []map[string]any `json:"group"`
	Activities    []map[string]any `json:"activities"`
}

func (s *Server) GetBuyingGroup(ctx context.Context, _ *mcp.CallToolRequest, input QuestionInput) (*mcp.CallToolResult, GroupOutput, error) {
	if s.assistant == nil {
		return nil, GroupOutput{}, fmt.Errorf("no dataset configured")
	}
	if input.Question == "" {
		return nil, GroupOutput{}, fmt.Errorf("question is required")
	}
	c, m, ok, err := s.assistant.Context(ctx, input.Question)
	if err != nil {
		return nil, GroupOutput{}, err
	}
	out := GroupOutput{
		Resolved:    ok,
		Opportunity: c.Opportunity,
		ContactIDs:  c.ContactIDs(),
		Group:       rows(c.Group),
		Activities:  rows(c.Activities),
	}
	if ok {
		out.OpportunityID = m.OpportunityID
		out.MatchedBy = string(m.MatchedBy)
	}
	return nil, out, nil
}

type ListOpportunitiesInput struct{}

type ListOpportunitiesOutput struct {
	Opportunities []string `json:"opportunities"`
	Count         int      `json:"count"`
}

func (s *Server) ListOpportunities(ctx context.Context, _ *mcp.CallToolRequest, _ ListOpportunitiesInput) (*mcp.CallToolResult, ListOpportunitiesOutput, error) {
	if s.assistant == nil {
		return nil, ListOpportunitiesOutput{}, fmt.Errorf("no dataset configured")
	}
	names, err := s.assistant.Opportunities(ctx)
	if err != nil {
		return nil, ListOpportunitiesOutput{}, err
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListOpportunitiesOutput{Opportunities: names, Count: len(names)}, nil
}

// rows flattens a table into JSON objects; null cells become nil.
func rows(t crm.Table) []map[string]any {
	out := make([]map[string]any, 0, t.Len())
	for _, r := range t.Records {
		row := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			if v, ok := r.Get(c); ok {
				row[c] = v
			} else {
				row[c] = nil
			}
		}
		out = append(out, row)
	}
	return out
}
