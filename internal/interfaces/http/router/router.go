package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/mayavriksh/backend/internal/interfaces/http/dto"
	"github.com/mayavriksh/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar mounts a set of routes under the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version> behind shared middleware.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
	log        *zap.Logger
}

type RouterOption func(*Router)

// WithAPIVersion sets the path version segment, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithMiddleware adds middleware that runs for every versioned API route,
// ahead of group and route handlers
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, mw...) }
}

// WithLogger logs the mounted route table during Setup
func WithLogger(log *zap.Logger) RouterOption {
	return func(r *Router) { r.log = log }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1", log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registrar and answers unknown paths with the JSON
// error envelope instead of gin's plain text 404.
func (r *Router) Setup() {
	base := "/api/" + r.apiVersion
	api := r.engine.Group(base, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
		if g, ok := registrar.(*DomainGroup); ok {
			r.log.Debug("Mounted route group",
				zap.String("group", g.name),
				zap.String("prefix", path.Join(base, g.prefix)),
				zap.Int("routes", len(g.routes)),
			)
		}
	}
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(shared.CodeNotFound,
			"No route for "+c.Request.Method+" "+c.Request.URL.Path, c.GetString(middleware.RequestIDKey)))
	})
}

// DomainGroup collects the routes of one resource under a shared prefix and
// optional group middleware.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware run before every route of the group
func (dg *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, mw...)
	return dg
}

func (dg *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, p, handlers)
}

func (dg *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, p, handlers)
}

func (dg *DomainGroup) add(method, p string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: p, handlers: handlers})
	return dg
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }
