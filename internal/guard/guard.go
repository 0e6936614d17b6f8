// Package guard gates views on session state.
//
// The guard is pure: it reads the in-memory session flag and never asks the
// backend whether the credential is still valid.
package guard

import (
	"strings"
)

// Well-known paths.
const (
	Root    = "/"
	Login   = "/login"
	Signup  = "/signup"
	Landing = "/dashboard"
)

// Access classifies a route.
type Access int

const (
	Protected  Access = iota // needs an active session
	PublicOnly               // only without a session (login, signup)
	Redirect                 // always forwards elsewhere
)

// Route is one entry of the table. Segments starting with ':' match any
// non-empty segment.
type Route struct {
	Pattern string
	Access  Access
	Target  string // for Redirect
}

// Routes is the view table.
var Routes = []Route{
	{Pattern: Login, Access: PublicOnly},
	{Pattern: Signup, Access: PublicOnly},
	{Pattern: Landing, Access: Protected},
	{Pattern: "/upload", Access: Protected},
	{Pattern: "/document/:id", Access: Protected},
	{Pattern: "/analyze-resume/:id", Access: Protected},
	{Pattern: "/analyze-company", Access: Protected},
	{Pattern: "/generate-letter", Access: Protected},
	{Pattern: "/settings", Access: Protected},
	{Pattern: Root, Access: Redirect, Target: Landing},
}

// SessionReader is what the guard needs from the session store.
type SessionReader interface {
	Active() bool
}

// Decision is the outcome of a check: allow, or go to Target.
type Decision struct {
	Allow  bool
	Target string
}

// Redirects reports whether the decision forwards elsewhere.
func (d Decision) Redirects() bool { return !d.Allow }

func allow() Decision { return Decision{Allow: true} }
func redirectTo(target string) Decision { return Decision{Target: target} }

// Guard checks paths against Routes.
type Guard struct {
	s      SessionReader
	routes []Route
}

// New returns a guard over the default table.
func New(s SessionReader) *Guard { return &Guard{s: s, routes: Routes} }

// Check decides what happens when path is visited.
func (g *Guard) Check(path string) Decision {
	r, ok := g.match(path)
	if !ok {
		return redirectTo(Landing)
	}
	switch r.Access {
	case Redirect:
		return redirectTo(r.Target)
	case PublicOnly:
		if g.s.Active() {
			return redirectTo(Landing)
		}
		return allow()
	default:
		if !g.s.Active() {
			return redirectTo(Login)
		}
		return allow()
	}
}

// Resolve follows redirects until a path is allowed; hops are bounded by the
// table size.
func (g *Guard) Resolve(path string) string {
	for i := 0; i <= len(g.routes); i++ {
		d := g.Check(path)
		if d.Allow {
			return path
		}
		path = d.Target
	}
	return path
}

func (g *Guard) match(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range g.routes {
		if matches(r.Pattern, path) {
			return r, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return Root
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func matches(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
