package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// SessionCounter reports how many map sessions are live.
type SessionCounter interface {
	Len() int
}

type InfoHandler struct {
	dataDir  string
	dbOK     bool
	sessions SessionCounter
}

func NewInfoHandler(dataDir string, dbOK bool, sessions SessionCounter) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK, sessions: sessions}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether the journal database is available"`
	Sessions int      `json:"sessions" doc:"Live map sessions"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	live := 0
	if h.sessions != nil {
		live = h.sessions.Len()
	}
	features := []string{"styles", "markers", "hover", "bounds", "layers"}
	if h.dbOK {
		features = append(features, "journal")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-waterfront",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.dbOK,
		Sessions: live,
		Features: features,
	}}, nil
}
