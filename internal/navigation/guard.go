package navigation

import (
	"log/slog"
	"sync"

	"github.com/milkrun/storefront/internal/session"
)

// Navigator is the navigation host the guard steers.
type Navigator interface {
	CurrentSegments() []string
	Replace(path string)
}

// Guard re-runs Decide on every session or route change and issues at most
// one Replace per pending redirect.
type Guard struct {
	nav    Navigator
	store  *session.Store
	logger *slog.Logger

	mu       sync.Mutex
	ready    bool
	inFlight string
	// lastRoute is the route last observed on the navigator, either on
	// evaluation or right after a Replace.
	lastRoute   string
	unsubscribe func()
}

// NewGuard subscribes to store and evaluates the current state once.
func NewGuard(nav Navigator, store *session.Store, logger *slog.Logger) *Guard {
	g := &Guard{nav: nav, store: store, logger: logger}
	g.unsubscribe = store.Subscribe(func(state session.State) {
		g.evaluate(state)
	})
	g.evaluate(store.Current())
	return g
}

// RouteChanged must be called by the host after the route changes.
func (g *Guard) RouteChanged() Decision {
	return g.evaluate(g.store.Current())
}

// Evaluate re-runs the decision against the current inputs.
func (g *Guard) Evaluate() Decision {
	return g.evaluate(g.store.Current())
}

// Ready is true once a decision has been reached for the current inputs.
func (g *Guard) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// Close detaches the guard from the session store.
func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Guard) evaluate(state session.State) Decision {
	route := Route(g.nav.CurrentSegments())

	g.mu.Lock()
	if path := route.String(); path != g.lastRoute {
		g.lastRoute = path
		g.inFlight = ""
	}

	d := Decide(state, route)
	g.ready = d.Resolved
	if !d.Resolved {
		g.mu.Unlock()
		return d
	}
	if !d.ShouldRedirect {
		g.inFlight = ""
		g.mu.Unlock()
		return d
	}
	if g.inFlight == d.Target {
		g.mu.Unlock()
		return d
	}
	g.inFlight = d.Target
	g.mu.Unlock()

	if g.logger != nil {
		g.logger.Debug("navigation redirect",
			slog.String("from", route.String()),
			slog.String("to", d.Target),
			slog.Bool("authenticated", state.Session.Authenticated),
			slog.String("role", state.Session.Role.String()),
		)
	}
	// Replace may synchronously call back into RouteChanged.
	g.nav.Replace(d.Target)

	// A navigator that moved without reporting it must not leave the next
	// report of the original route looking unchanged.
	landed := Route(g.nav.CurrentSegments()).String()
	g.mu.Lock()
	g.lastRoute = landed
	g.mu.Unlock()
	return d
}
