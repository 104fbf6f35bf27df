package access

import (
	"strings"

	"github.com/spec-kit/edushare/internal/domain"
)

// Route declares the requirement of one client page.
// A Pattern ending in "/*" matches the prefix and everything below it.
type Route struct {
	Pattern     string
	Public      bool
	Requirement *Requirement
}

// RouteTable resolves client paths to their requirements.
type RouteTable struct {
	routes   []Route
	fallback string
}

// NewRouteTable builds a table. Unknown paths are sent to fallback.
func NewRouteTable(fallback string, routes ...Route) *RouteTable {
	return &RouteTable{routes: routes, fallback: fallback}
}

// DefaultRouteTable mirrors the web client's pages.
func DefaultRouteTable() *RouteTable {
	return NewRouteTable("/",
		Route{Pattern: "/", Public: true},
		Route{Pattern: "/auth/*", Public: true},
		Route{Pattern: "/dashboard", Requirement: Roles(domain.RoleStudent)},
		Route{Pattern: "/faculty/dashboard", Requirement: Roles(domain.RoleFaculty)},
		Route{Pattern: "/admin/dashboard", Requirement: Roles(domain.RoleAdmin)},
		Route{Pattern: "/admin/users", Requirement: Roles(domain.RoleAdmin)},
		Route{Pattern: "/admin/eligible-usns", Requirement: Roles(domain.RoleAdmin)},
		Route{Pattern: "/study-materials"},
		Route{Pattern: "/placement-resources"},
		Route{Pattern: "/profile"},
		Route{Pattern: "/settings"},
		Route{Pattern: "/notifications"},
		Route{Pattern: "/storage/trash"},
	)
}

// Resolve finds the route for path.
func (t *RouteTable) Resolve(path string) (Route, bool) {
	path = normalizePath(path)
	for _, r := range t.routes {
		if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return r, true
			}
			continue
		}
		if r.Pattern == path {
			return r, true
		}
	}
	return Route{}, false
}

// Fallback is where unknown paths are sent.
func (t *RouteTable) Fallback() string {
	return t.fallback
}

// Routes returns the declared routes in order.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	return path
}
