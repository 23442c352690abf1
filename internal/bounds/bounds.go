// Package bounds republishes the visible rectangle as text on every camera
// move.
package bounds

import (
	"fmt"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
)

// Format renders b as "Bounds: west | south | east | north".
func Format(b geo.Bounds) string {
	return fmt.Sprintf("Bounds: %.6f | %.6f | %.6f | %.6f", b.West(), b.South(), b.East(), b.North())
}

// Sink receives each formatted bounds text.
type Sink func(text string)

// Reporter publishes the host bounds to a sink.
type Reporter struct {
	host *maphost.Host
	sink Sink
	sub  *maphost.Subscription
}

// NewReporter creates a stopped reporter.
func NewReporter(host *maphost.Host, sink Sink) *Reporter {
	return &Reporter{host: host, sink: sink}
}

// Start publishes the current bounds and then again after every move.
// Starting a running reporter is a no-op.
func (r *Reporter) Start() {
	if r.sub.Active() {
		return
	}
	r.report()
	r.sub = r.host.On(maphost.EventMove, "", func(maphost.Event) { r.report() })
}

// Stop releases the move subscription.
func (r *Reporter) Stop() {
	r.sub.Release()
	r.sub = nil
}

// Text returns the current bounds text without publishing it.
func (r *Reporter) Text() string { return Format(r.host.Bounds()) }

func (r *Reporter) report() {
	if r.sink != nil {
		r.sink(r.Text())
	}
}
