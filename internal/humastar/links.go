package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Links holds RFC 8288 Link header values keyed by operation path.
type Links struct {
	byPath map[string][]string
}

// NewLinks returns an empty link set. Its Transformer can be installed in
// the Huma config before the routes exist; Auto fills it afterwards.
func NewLinks() *Links {
	return &Links{byPath: map[string][]string{}}
}

// AutoLinks is NewLinks followed by Auto.
func AutoLinks(api huma.API, skipTags ...string) *Links {
	l := NewLinks()
	l.Auto(api, skipTags...)
	return l
}

// Auto walks the OpenAPI document and derives hypermedia links.
// Operations tagged with any of skipTags (SSE and browser-report endpoints)
// take no part. Call after all routes are registered.
func (l *Links) Auto(api huma.API, skipTags ...string) {
	oapi := api.OpenAPI()

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.ContainsFunc(primaryTags(pi), func(t string) bool { return slices.Contains(skipTags, t) }) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; ok {
			l.Add(item, parent, "collection")
			l.Add(item, parent, "up")
		}
		if pi := oapi.Paths[item]; pi.Put != nil || pi.Patch != nil {
			l.Add(item, item, "edit")
		}
	}

	for _, coll := range collections {
		for _, item := range items {
			if path.Dir(item) == coll {
				l.Add(coll, item, "item")
			}
		}
		if oapi.Paths[coll].Post != nil {
			l.Add(coll, coll, "create-form")
		}
		if coll != "/health" {
			l.Add(coll, "/health", "up")
			l.Add("/health", coll, lastSegment(coll))
		}
	}

	l.Add("/health", "/openapi.json", "describedby")
	l.Add("/health", "/openapi.json", "service-desc")
	l.Add("/health", "/docs", "service-doc")

	for _, p := range append(collections, items...) {
		if ref := responseSchemaRef(oapi.Paths[p]); ref != "" {
			l.Add(p, "/openapi.json#/components/schemas/"+ref, "describedby")
		}
	}

	for p, pi := range oapi.Paths {
		headers := l.byPath[p]
		if len(headers) == 0 {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
}

// Add records a link from one operation path to a target. Duplicates are
// ignored.
func (l *Links) Add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if slices.Contains(l.byPath[from], val) {
		return
	}
	l.byPath[from] = append(l.byPath[from], val)
}

// For returns the link header values of an operation path.
func (l *Links) For(opPath string) []string {
	return l.byPath[opPath]
}

// Transformer returns a Huma Transformer that writes the Link headers at
// runtime, plus self, pagination and action links taken from the response.
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range l.byPath[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}

		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks documents the relationships as OpenAPI Link objects
// on the operation's success response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func responseSchemaRef(pi *huma.PathItem) string {
	if pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				parts := strings.Split(mt.Schema.Ref, "/")
				return parts[len(parts)-1]
			}
		}
	}
	return ""
}

func parseLinkHeader(h string) (rel, href string) {
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
