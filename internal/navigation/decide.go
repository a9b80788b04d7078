package navigation

import (
	"errors"
	"fmt"

	"github.com/milkrun/storefront/internal/session"
)

// ErrNavigationLoop means a redirect target would itself be redirected.
var ErrNavigationLoop = errors.New("navigation loop risk")

// Decision is computed fresh on every evaluation and never stored.
// Resolved is false while the auth state is still loading.
type Decision struct {
	Resolved       bool   `json:"resolved"`
	ShouldRedirect bool   `json:"shouldRedirect"`
	Target         string `json:"target,omitempty"`
}

func stay() Decision { return Decision{Resolved: true} }

func redirect(target string) Decision {
	return Decision{Resolved: true, ShouldRedirect: true, Target: target}
}

// HomeFor returns the root route of a role's tree.
func HomeFor(role session.Role) string {
	switch session.ParseRole(string(role)) {
	case session.RoleSuperadmin:
		return SuperadminHome
	case session.RoleAdmin, session.RoleRetailer:
		return AdminHome
	default:
		return CustomerHome
	}
}

// AreaFor returns the protected area owned by a role.
func AreaFor(role session.Role) Area {
	switch session.ParseRole(string(role)) {
	case session.RoleSuperadmin:
		return AreaSuperadmin
	case session.RoleAdmin, session.RoleRetailer:
		return AreaAdmin
	default:
		return AreaCustomer
	}
}

// Decide applies the redirect rules to a state and route.
func Decide(state session.State, route Route) Decision {
	if state.Loading {
		return Decision{}
	}

	area := Classify(route)
	sess := state.Session

	if !sess.Authenticated {
		if area.Protected() {
			return redirect(LoginPath)
		}
		return stay()
	}

	home := HomeFor(sess.Role)
	if area == AreaAuth || route.IsRoot() {
		return redirect(home)
	}
	if area.Protected() && area != AreaFor(sess.Role) {
		return redirect(home)
	}
	return stay()
}

// sampleRoutes covers every classification branch.
var sampleRoutes = []string{
	"/", "/index", "/Login", "/login", "/signup", "/get-started",
	"/(tabs)", "/(tabs)/wallet", "/checkout", "/order-success", "/categories", "/cart",
	"/(admin)", "/(admin)/orders", "/(superadmin)", "/(superadmin)/retailers",
	"/product/42",
}

// CheckRedirectTargets evaluates every role against every route class and
// verifies that following a redirect once always settles.
func CheckRedirectTargets() error {
	states := []session.State{{Session: session.Anonymous()}}
	for _, role := range []string{"customer", "admin", "retailer", "superadmin", "unknown", ""} {
		states = append(states, session.State{Session: session.Session{Authenticated: true, Role: session.Role(role)}})
	}

	for _, st := range states {
		for _, path := range sampleRoutes {
			d := Decide(st, ParseRoute(path))
			if !d.ShouldRedirect {
				continue
			}
			next := Decide(st, ParseRoute(d.Target))
			if next.ShouldRedirect {
				return fmt.Errorf("%w: role %q at %s -> %s -> %s", ErrNavigationLoop, st.Session.Role, path, d.Target, next.Target)
			}
		}
	}
	return nil
}
