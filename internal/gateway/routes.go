package gateway

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("ask", s.rpcAsk)
	s.Handle("history.list", s.rpcHistoryList)
	s.Handle("opportunities.list", s.rpcOpportunitiesList)
	s.Handle("group.get", s.rpcGroupGet)
	s.Handle("dataset.reload", s.rpcDatasetReload)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Sessions: s.sessions.Len(),
		UptimeMs: s.uptime().Milliseconds(),
	})
}

func (s *Server) rpcAsk(rc *RequestContext) {
	if s.assistant == nil {
		rc.RespondError(CodeUnavailable, "no completion provider configured")
		return
	}

	var p AskParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	result, err := s.assistant.Ask(rc.Ctx, rc.Client.Session, p.Question)
	var cerr *agent.CompletionError
	switch {
	case err == nil:
	case errors.Is(err, agent.ErrEmptyQuestion):
		rc.RespondError(CodeInvalidParams, "question is required")
		return
	case errors.Is(err, conversation.ErrSessionClosed):
		rc.RespondError(CodeSessionClosed, err.Error())
		return
	case errors.As(err, &cerr):
		rc.RespondErrorShape(ErrorShape{
			Code:      CodeCompletionFailed,
			Message:   "Something went wrong: " + cerr.Err.Error(),
			Details:   map[string]any{"provider": cerr.Provider},
			Retryable: cerr.Retryable(),
		})
		return
	default:
		s.log.Error().Err(err).Str("sessionId", rc.Client.Session.ID).Msg("ask failed")
		rc.RespondError(CodeInternal, err.Error())
		return
	}

	rc.Respond(result)
	rc.Client.SendEvent(EventAnswerRecorded, result.Interaction, s.eventSeq.Add(1))
}

func (s *Server) rpcHistoryList(rc *RequestContext) {
	var p HistoryParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	sess := rc.Client.Session
	items := sess.History()
	if p.Recent {
		items = sess.Recent()
	}
	rc.Respond(HistoryResult{SessionID: sess.ID, Interactions: items})
}

func (s *Server) rpcOpportunitiesList(rc *RequestContext) {
	if s.assistant == nil {
		rc.RespondError(CodeUnavailable, "no dataset configured")
		return
	}
	names, err := s.assistant.Opportunities(rc.Ctx)
	if err != nil {
		rc.RespondError(CodeUnavailable, err.Error())
		return
	}
	rc.Respond(map[string]any{"opportunities": names})
}

func (s *Server) rpcGroupGet(rc *RequestContext) {
	if s.assistant == nil {
		rc.RespondError(CodeUnavailable, "no dataset configured")
		return
	}

	var p GroupParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	c, m, ok, err := s.assistant.Context(rc.Ctx, p.Question)
	if err != nil {
		rc.RespondError(CodeUnavailable, err.Error())
		return
	}
	payload := map[string]any{
		"resolved":   ok,
		"context":    c,
		"contactIds": c.ContactIDs(),
	}
	if ok {
		payload["match"] = m
	}
	rc.Respond(payload)
}

func (s *Server) rpcDatasetReload(rc *RequestContext) {
	if s.data == nil {
		rc.RespondError(CodeUnavailable, "dataset reload not enabled")
		return
	}

	ds, err := s.data.Reload(rc.Ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("dataset reload failed")
		rc.RespondError(CodeUnavailable, err.Error())
		return
	}

	payload := map[string]any{
		"loadId":   ds.LoadID,
		"source":   ds.Source,
		"loadedAt": ds.LoadedAt,
		"counts":   ds.Counts(),
	}
	rc.Respond(payload)
	s.clients.Broadcast(EventDatasetReloaded, payload, s.eventSeq.Add(1))
}
