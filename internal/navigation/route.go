package navigation

import "strings"

const (
	LoginPath      = "/Login"
	CustomerHome   = "/(tabs)"
	AdminHome      = "/(admin)"
	SuperadminHome = "/(superadmin)"
)

// Route is the current navigation location as ordered path segments,
// e.g. ["(tabs)", "wallet"]. The root route has no segments.
type Route []string

// ParseRoute splits a slash separated path into a Route.
func ParseRoute(path string) Route {
	var r Route
	for _, seg := range strings.Split(path, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			r = append(r, seg)
		}
	}
	return r
}

// First returns the leading segment, or "" for the root.
func (r Route) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// IsRoot reports whether r is the landing route.
func (r Route) IsRoot() bool {
	return len(r) == 0 || (len(r) == 1 && r[0] == "index")
}

func (r Route) String() string {
	return "/" + strings.Join(r, "/")
}

// Area is the coarse tag a route classifies to.
type Area int

const (
	AreaPublic Area = iota
	AreaAuth
	AreaCustomer
	AreaAdmin
	AreaSuperadmin
)

func (a Area) String() string {
	switch a {
	case AreaAuth:
		return "auth"
	case AreaCustomer:
		return "protected-customer"
	case AreaAdmin:
		return "protected-admin"
	case AreaSuperadmin:
		return "protected-superadmin"
	default:
		return "public"
	}
}

// Protected is true for areas that require a signed-in user.
func (a Area) Protected() bool {
	return a == AreaCustomer || a == AreaAdmin || a == AreaSuperadmin
}

// customerSegments are the top-level segments a customer may visit. Only the
// customer tree has an allow-list outside its group root.
var customerSegments = map[string]struct{}{
	"(tabs)":        {},
	"checkout":      {},
	"order-success": {},
	"categories":    {},
	"cart":          {},
}

var authSegments = map[string]struct{}{
	"login":       {},
	"signup":      {},
	"get-started": {},
}

// Classify maps a route's first segment to its area.
func Classify(r Route) Area {
	first := r.First()
	if _, ok := customerSegments[first]; ok {
		return AreaCustomer
	}
	switch first {
	case "(admin)":
		return AreaAdmin
	case "(superadmin)":
		return AreaSuperadmin
	}
	if _, ok := authSegments[strings.ToLower(first)]; ok {
		return AreaAuth
	}
	return AreaPublic
}
