// Package api exposes the service operations over HTTP. Responses use a
// uniform envelope so callers can branch on success and a stable error
// code without inspecting transport status.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yairfalse/peili/filter"
	"github.com/yairfalse/peili/service"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// envelope is the uniform response shape.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the REST surface.
type Server struct {
	svc    *service.Service
	logger *telemetry.Logger
	engine *gin.Engine
}

// NewServer builds the router. The gin engine is returned fully wired;
// callers own the listener.
func NewServer(svc *service.Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:    svc,
		logger: telemetry.NewLogger("api"),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(otelgin.Middleware("peili"))

	s.engine.GET("/healthz", s.healthz)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/inventory", s.discoverInventory)
	v1.GET("/search/tags", s.searchByTag)
	v1.GET("/dependencies", s.analyzeDependencies)
	v1.GET("/orphans", s.findOrphans)
	v1.GET("/health", s.healthOverview)
	v1.GET("/recommendations", s.recommendations)
	v1.POST("/cache/invalidate", s.invalidate)

	return s
}

// Handler returns the wired http handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{"status": "ok"}})
}

type inventoryQuery struct {
	Scope                 string `form:"scope"`
	ResourceGroup         string `form:"resource_group"`
	Type                  string `form:"type"`
	Location              string `form:"location"`
	TagKey                string `form:"tag_key"`
	TagValue              string `form:"tag_value"`
	ExcludeDeprovisioning bool   `form:"exclude_deprovisioning"`
	MaxResults            int    `form:"max_results" binding:"omitempty,gte=0"`
}

func (s *Server) discoverInventory(c *gin.Context) {
	var q inventoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, &types.ValidationError{Field: "query", Reason: err.Error()})
		return
	}

	result, err := s.svc.DiscoverInventory(c.Request.Context(), q.Scope, filter.Criteria{
		ResourceGroup:         q.ResourceGroup,
		Type:                  q.Type,
		Location:              q.Location,
		TagKey:                q.TagKey,
		TagValue:              q.TagValue,
		ExcludeDeprovisioning: q.ExcludeDeprovisioning,
		MaxResults:            q.MaxResults,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

type tagSearchQuery struct {
	Scope      string `form:"scope"`
	Key        string `form:"key" binding:"required"`
	Value      string `form:"value"`
	MaxResults int    `form:"max_results" binding:"omitempty,gte=0"`
}

func (s *Server) searchByTag(c *gin.Context) {
	var q tagSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, &types.ValidationError{Field: "key", Reason: "required query parameter"})
		return
	}

	result, err := s.svc.SearchByTag(c.Request.Context(), q.Scope, q.Key, q.Value, q.MaxResults)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

type dependencyQuery struct {
	Scope         string `form:"scope"`
	ResourceID    string `form:"resource_id"`
	ResourceGroup string `form:"resource_group"`
}

func (s *Server) analyzeDependencies(c *gin.Context) {
	var q dependencyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, &types.ValidationError{Field: "query", Reason: err.Error()})
		return
	}

	result, err := s.svc.AnalyzeDependencies(c.Request.Context(), q.Scope, q.ResourceID, q.ResourceGroup)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

type orphanQuery struct {
	Scope         string   `form:"scope"`
	Categories    []string `form:"category"`
	ResourceGroup string   `form:"resource_group"`
}

func (s *Server) findOrphans(c *gin.Context) {
	var q orphanQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, &types.ValidationError{Field: "query", Reason: err.Error()})
		return
	}

	result, err := s.svc.FindOrphans(c.Request.Context(), q.Scope, q.Categories, q.ResourceGroup)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

func (s *Server) healthOverview(c *gin.Context) {
	result, err := s.svc.GetHealthOverview(c.Request.Context(), c.Query("scope"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

func (s *Server) recommendations(c *gin.Context) {
	result, err := s.svc.Recommendations(c.Request.Context(), c.Query("scope"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, result)
}

func (s *Server) invalidate(c *gin.Context) {
	scopeID, err := s.svc.Invalidate(c.Request.Context(), c.Query("scope"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, gin.H{"scope": scopeID, "invalidated": true})
}

func (s *Server) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) fail(c *gin.Context, err error) {
	code := types.ErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.WithContext(c.Request.Context()).Error().
			Err(err).
			Str("code", code).
			Msg("request failed")
	}
	c.JSON(status, envelope{Success: false, Error: &errorBody{
		Code:    code,
		Message: publicMessage(err, code),
	}})
}

func statusFor(code string) int {
	switch code {
	case types.CodeValidationError, types.CodeNoScopeAvailable:
		return http.StatusBadRequest
	case types.CodeScopeNotFound:
		return http.StatusNotFound
	case types.CodeInventoryFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps upstream transport detail out of client-facing
// errors while preserving the domain message.
func publicMessage(err error, code string) string {
	if code == types.CodeInternal {
		return "internal error"
	}
	var fetchErr *types.InventoryFetchError
	if errors.As(err, &fetchErr) {
		return "inventory fetch failed for scope " + fetchErr.Scope
	}
	return err.Error()
}
