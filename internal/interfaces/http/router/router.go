// Package router assembles the HTTP engine and the versioned API route groups.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Router mounts route groups under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	groups  []*DomainGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.version = version
	}
}

// NewRouter creates a Router for engine; the version defaults to v1
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a group for Setup
func (r *Router) Register(group *DomainGroup) *Router {
	r.groups = append(r.groups, group)
	return r
}

// Setup mounts every registered group and returns the mounted routes as
// "METHOD /full/path" in registration order
func (r *Router) Setup() []string {
	api := r.engine.Group("/api/" + r.version)
	var mounted []string
	for _, g := range r.groups {
		mounted = g.mount(api, mounted)
	}
	return mounted
}

// DomainGroup collects the routes of one area of the API under a prefix
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware applied to every route of the group and its subgroups
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle adds a route for method
func (dg *DomainGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: relativePath, handlers: handlers})
	return dg
}

// GET adds a GET route
func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, relativePath, handlers...)
}

// POST adds a POST route
func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, relativePath, handlers...)
}

// Group adds a nested group
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

func (dg *DomainGroup) mount(parent *gin.RouterGroup, mounted []string) []string {
	group := parent.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, rt := range dg.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
		mounted = append(mounted, rt.method+" "+joinPath(group.BasePath(), rt.path))
	}
	for _, sub := range dg.subgroups {
		mounted = sub.mount(group, mounted)
	}
	return mounted
}

func joinPath(base, relative string) string {
	if relative == "" {
		return base
	}
	return path.Join(base, relative)
}
