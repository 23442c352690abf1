package api

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-waterfront/internal/humastar"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/session"
	"github.com/joeblew999/plat-waterfront/internal/styleswitch"
)

// SessionHandler exposes live map sessions over REST.
type SessionHandler struct {
	sessions *session.Registry
}

func NewSessionHandler(sessions *session.Registry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map", h.ListSessions, huma.OperationTags("map"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-map-session",
		Method:        "POST",
		Path:          "/api/v1/map",
		Summary:       "Open a map session",
		Tags:          []string{"map"},
		DefaultStatus: 201,
	}, h.CreateSession)
	huma.Get(api, "/api/v1/map/{session}", h.GetSession, huma.OperationTags("map"))
	huma.Delete(api, "/api/v1/map/{session}", h.CloseSession, huma.OperationTags("map"))
}

// SessionInput addresses one session.
type SessionInput struct {
	Session string `path:"session" doc:"Session id"`
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID         string    `json:"id" doc:"Session id"`
	Opened     time.Time `json:"opened" doc:"When the session was created"`
	LastActive time.Time `json:"lastActive" doc:"When the session last handled a request"`
}

// SnapshotBody is a session snapshot with its available actions.
type SnapshotBody struct {
	session.Snapshot
}

var sessionActions = []humastar.ActionDef{
	{Rel: "select-style", Pattern: "/api/v1/map/%s/style", Method: "POST", Title: "Switch map style"},
	{Rel: "events", Pattern: "/api/v1/map/%s/events", Method: "GET", Title: "Datastar update stream"},
	{Rel: "close", Pattern: "/api/v1/map/%s", Method: "DELETE", Title: "Close the session"},
}

// Actions implements humastar.Actor.
func (b SnapshotBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, sessionActions...)
}

func (h *SessionHandler) ListSessions(ctx context.Context, input *struct{}) (*struct{ Body []SessionSummary }, error) {
	out := []SessionSummary{}
	for _, s := range h.sessions.List() {
		out = append(out, SessionSummary{ID: s.ID(), Opened: s.Opened(), LastActive: s.LastActive()})
	}
	return &struct{ Body []SessionSummary }{Body: out}, nil
}

func (h *SessionHandler) CreateSession(ctx context.Context, input *struct{}) (*struct{ Body SnapshotBody }, error) {
	s, err := h.sessions.Create()
	if err != nil {
		return nil, SessionError(err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, SessionError(err)
	}
	return &struct{ Body SnapshotBody }{Body: SnapshotBody{snap}}, nil
}

func (h *SessionHandler) GetSession(ctx context.Context, input *SessionInput) (*struct{ Body SnapshotBody }, error) {
	s, ok := h.sessions.Get(input.Session)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, SessionError(err)
	}
	return &struct{ Body SnapshotBody }{Body: SnapshotBody{snap}}, nil
}

func (h *SessionHandler) CloseSession(ctx context.Context, input *SessionInput) (*struct{ Body MessageBody }, error) {
	if !h.sessions.Close(input.Session) {
		return nil, huma.Error404NotFound("session not found")
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

// SessionError maps session and map host errors onto HTTP statuses.
func SessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrClosed),
		errors.Is(err, maphost.ErrDestroyed),
		errors.Is(err, styleswitch.ErrNoMap):
		return huma.Error404NotFound("session closed")
	case errors.Is(err, mapstyle.ErrUnknownStyle):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, maphost.ErrMissingContainer):
		return huma.Error500InternalServerError("map container is not configured", err)
	case errors.Is(err, maphost.ErrUnknownElement),
		errors.Is(err, maphost.ErrUnknownLayer):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, maphost.ErrInvalidCamera):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, maphost.ErrUnknownSwap):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("session busy", err)
	}
	return huma.Error500InternalServerError("map operation failed", err)
}
