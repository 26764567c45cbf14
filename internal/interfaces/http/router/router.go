// Package router lays out the bridge's HTTP surface. Business routes are
// declared as groups and mounted under the versioned API prefix; probes stay
// at the root.
package router

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// APIPrefix is the mount point of every Group
const APIPrefix = "/api/v1"

// Group is a declarative set of routes sharing a path prefix and middleware.
// Nothing touches the engine until the group is mounted.
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*Group
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewGroup starts a group rooted at prefix
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Use appends middleware run before every route of the group and its children
func (g *Group) Use(mw ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, mw...)
	return g
}

// Handle declares a route
func (g *Group) Handle(method, path string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, path, handlers...)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, path, handlers...)
}

// Child declares a nested group below this one
func (g *Group) Child(prefix string) *Group {
	child := NewGroup(prefix)
	g.children = append(g.children, child)
	return child
}

func (g *Group) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.mount(rg)
	}
}

// Router mounts groups under APIPrefix
type Router struct {
	engine *gin.Engine
}

// NewRouter wraps engine
func NewRouter(engine *gin.Engine) *Router {
	return &Router{engine: engine}
}

// Mount registers the groups' routes on the engine
func (r *Router) Mount(groups ...*Group) *Router {
	api := r.engine.Group(APIPrefix)
	for _, g := range groups {
		g.mount(api)
	}
	return r
}

// Routes lists every route of the engine as "METHOD path", sorted
func (r *Router) Routes() []string {
	infos := r.engine.Routes()
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Method+" "+info.Path)
	}
	slices.Sort(out)
	return out
}
