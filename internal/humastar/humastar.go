// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Datastar events written to a Huma stream via [SSE] and [NewSSE]
//   - Signals: Datastar signal parsing via [Signals] and [SignalsInput]
//   - Handler: embeddable base for SSE handlers via [Handler]
//   - Links: RFC 8288 Link headers derived from the OpenAPI document via [AutoLinks]
//   - Page data: routes and signals for page templates via [BuildPageData]
//
// Usage:
//
//	type MapHandler struct {
//	    humastar.Handler
//	    sessions *session.Registry
//	}
//
//	func (h *MapHandler) Events(ctx context.Context, in *EventsInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Signals(map[string]any{"bounds": "..."})
//	    }), nil
//	}
package humastar

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-waterfront/internal/templates"
)

// Handler is embedded by handlers that answer with Datastar streams or
// rendered fragments.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream answers with an SSE stream driven by fn.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Fragment renders a named template. A failed render yields the
// "map-error" fragment when it exists, and the error text otherwise.
func (h *Handler) Fragment(name string, data any) string {
	html, err := h.Renderer.Render(name, data)
	if err == nil {
		return html
	}
	if h.Renderer.Has("map-error") {
		if out, rerr := h.Renderer.Render("map-error", err.Error()); rerr == nil {
			return out
		}
	}
	return err.Error()
}

// SSE is a Datastar event generator bound to one response.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE unwraps the stdlib request behind ctx. It requires the humago
// adapter.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Replace swaps the element matched by selector for html.
func (s SSE) Replace(html, selector string) error {
	return s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
	)
}

// Error sets the error signal.
func (s SSE) Error(msg string) error {
	return s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Event dispatches a DOM CustomEvent on the document with detail as its
// payload.
func (s SSE) Event(name string, detail any) error {
	return s.DispatchCustomEvent(name, detail)
}

// Signals is the JSON object Datastar posts with every action.
type Signals map[string]any

// ParseSignals decodes a request body. An empty body is an empty set.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(body) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns the signal as a string. Missing keys and other types
// yield "".
func (s Signals) String(key string) string {
	str, _ := s[key].(string)
	return str
}

// Has reports whether key was sent, even with a zero value.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SignalsInput takes the raw body of a Datastar action.
type SignalsInput struct {
	RawBody []byte
}

// MustParse returns the signals, or a 400 for a body that is not a JSON
// object.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid signals: " + err.Error())
	}
	return signals, nil
}
