package humastar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// SSEExtension marks an operation as a Datastar stream the page opens on
// load.
const SSEExtension = "x-sse"

// PageData carries what a page template needs from the OpenAPI document,
// so the HTML never hardcodes URLs or signal names.
type PageData struct {
	// Signals is the JSON for the data-signals attribute.
	Signals string

	// Routes maps operation ids to paths. Params given to BuildPageData are
	// substituted; the others stay as {name} templates.
	Routes map[string]string

	// SSEInits holds the resolved paths of streams opened on load.
	SSEInits []string
}

// DataInit returns a Datastar data-init attribute value joining all SSE init URLs.
func (pd PageData) DataInit() string {
	parts := make([]string, 0, len(pd.SSEInits))
	for _, url := range pd.SSEInits {
		parts = append(parts, fmt.Sprintf("@get('%s')", url))
	}
	return strings.Join(parts, " ")
}

// BuildPageData collects the operations tagged tag, resolving path params
// from params, and encodes signals.
func BuildPageData(api huma.API, tag string, params map[string]string, signals map[string]any) (PageData, error) {
	pd := PageData{Routes: map[string]string{}}

	if signals == nil {
		signals = map[string]any{}
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return PageData{}, fmt.Errorf("encoding signals: %w", err)
	}
	pd.Signals = string(b)

	for p, pi := range api.OpenAPI().Paths {
		for _, op := range operationsOf(pi) {
			if op == nil || op.OperationID == "" || !hasTag(op.Tags, tag) {
				continue
			}
			resolved := resolvePath(p, params)
			pd.Routes[op.OperationID] = resolved
			if sse, _ := op.Extensions[SSEExtension].(bool); sse && op.Method == "GET" {
				pd.SSEInits = append(pd.SSEInits, resolved)
			}
		}
	}
	return pd, nil
}

func resolvePath(p string, params map[string]string) string {
	for k, v := range params {
		p = strings.ReplaceAll(p, "{"+k+"}", v)
	}
	return p
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
