// Package navgate routes between the authenticated and unauthenticated
// screen groups without flicker or redirect loops. It is deliberately
// decoupled from any rendering framework: the view reports mount state,
// auth state, and location, and asks the gate for at most one redirect.
package navgate

import "sync"

// Route identifies a screen.
type Route string

const (
	RouteWelcome   Route = "/welcome"
	RouteLogin     Route = "/login"
	RouteSignup    Route = "/signup"
	RouteDashboard Route = "/dashboard"
	RouteControl   Route = "/control"
	RouteSchedule  Route = "/schedule"
	RoutePets      Route = "/pets"
)

// DefaultAuthed and DefaultUnauthed are the landing screens per group.
const (
	DefaultAuthed   = RouteDashboard
	DefaultUnauthed = RouteWelcome
)

// AuthedRoutes returns the screens reachable while signed in.
func AuthedRoutes() map[Route]bool {
	return map[Route]bool{
		RouteDashboard: true,
		RouteControl:   true,
		RouteSchedule:  true,
		RoutePets:      true,
	}
}

// UnauthedRoutes returns the screens reachable while signed out.
func UnauthedRoutes() map[Route]bool {
	return map[Route]bool{
		RouteWelcome: true,
		RouteLogin:   true,
		RouteSignup:  true,
	}
}

// Phase is the gate's lifecycle state.
type Phase string

const (
	// Pending: session unresolved or view not mounted; render a neutral
	// loading indicator and issue no navigation.
	Pending Phase = "pending"
	// Resolving: session resolved and view mounted; one redirect decision
	// is owed for the current (identity-state, location) pair.
	Resolving Phase = "resolving"
	// Settled: the decision for the current pair has been issued.
	Settled Phase = "settled"
)

type latchKey struct {
	authed   bool
	location Route
}

// Gate decides redirects between screen groups. A latch guarantees at most
// one redirect per (identity-state, location) transition; re-renders with
// an unchanged pair never redirect again. The latch resets when the
// identity state changes, not on every render.
type Gate struct {
	mu       sync.Mutex
	mounted  bool
	resolved bool
	authed   bool
	location Route

	latched bool
	latch   latchKey
}

// New creates a gate with the given starting location.
func New(location Route) *Gate {
	return &Gate{location: location}
}

// SetMounted records whether the view layer is ready to navigate.
func (g *Gate) SetMounted(mounted bool) {
	g.mu.Lock()
	g.mounted = mounted
	g.mu.Unlock()
}

// SetAuthState records the session store's state. The first resolved=true
// ends the Pending phase; a change in identity presence invalidates the
// latch so the next Evaluate issues a fresh decision.
func (g *Gate) SetAuthState(loading, authenticated bool) {
	g.mu.Lock()
	g.resolved = !loading
	if g.authed != authenticated {
		g.latched = false
	}
	g.authed = authenticated
	g.mu.Unlock()
}

// SetLocation records the current screen, typically after a redirect or a
// user navigation completes.
func (g *Gate) SetLocation(location Route) {
	g.mu.Lock()
	if g.location != location {
		g.latched = false
	}
	g.location = location
	g.mu.Unlock()
}

// Location returns the current screen.
func (g *Gate) Location() Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.location
}

// Phase returns the gate's current lifecycle state.
func (g *Gate) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted || !g.resolved {
		return Pending
	}
	if g.latched && g.latch == (latchKey{authed: g.authed, location: g.location}) {
		return Settled
	}
	return Resolving
}

// Evaluate issues the redirect decision for the current state. It returns
// the target route and true at most once per (identity-state, location)
// transition; every other call returns false. While Pending it always
// returns false.
func (g *Gate) Evaluate() (Route, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.mounted || !g.resolved {
		return "", false
	}

	key := latchKey{authed: g.authed, location: g.location}
	if g.latched && g.latch == key {
		return "", false
	}
	g.latched = true
	g.latch = key

	if g.authed && !AuthedRoutes()[g.location] {
		return DefaultAuthed, true
	}
	if !g.authed && !UnauthedRoutes()[g.location] {
		return DefaultUnauthed, true
	}
	return "", false
}
