// Package http is the gin adapter exposing the projection and
// performance engines plus the portfolio CRUD surface.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simaogato/portfolio-engine/internal/adapter/cache"
	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/performance"
	"github.com/simaogato/portfolio-engine/internal/usecase/projection"
)

// Server bundles the repositories, engines, and the optional projection
// cache behind the HTTP handlers.
type Server struct {
	portfolios  domain.PortfolioRepository
	assets      domain.AssetRepository
	changes     domain.PlannedChangeRepository
	projection  *projection.Engine
	performance *performance.Engine
	// cache is nil when Redis is disabled; handlers degrade to
	// recomputing every request.
	cache *cache.ProjectionCache
	log   *logger.Logger
}

// NewServer creates a new Server instance
func NewServer(
	portfolios domain.PortfolioRepository,
	assets domain.AssetRepository,
	changes domain.PlannedChangeRepository,
	projectionEngine *projection.Engine,
	performanceEngine *performance.Engine,
	projectionCache *cache.ProjectionCache,
	log *logger.Logger,
) *Server {
	return &Server{
		portfolios:  portfolios,
		assets:      assets,
		changes:     changes,
		projection:  projectionEngine,
		performance: performanceEngine,
		cache:       projectionCache,
		log:         log,
	}
}

// Router builds the gin engine with token auth on every API route.
func (s *Server) Router(apiToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1", TokenAuth(apiToken))
	{
		api.POST("/portfolios", s.createPortfolio)
		api.GET("/portfolios", s.listPortfolios)
		api.GET("/portfolios/:id", s.getPortfolio)

		api.POST("/portfolios/:id/assets", s.createAsset)
		api.GET("/portfolios/:id/assets", s.listAssets)

		api.POST("/portfolios/:id/changes", s.createChange)
		api.GET("/portfolios/:id/changes", s.listChanges)
		api.DELETE("/portfolios/:id/changes/:changeID", s.deleteChange)

		api.GET("/portfolios/:id/projection", s.getProjection)
		api.POST("/portfolios/:id/projection/preview", s.previewProjection)
		api.GET("/portfolios/:id/performance", s.getPerformance)
	}

	return router
}

func (s *Server) createPortfolio(c *gin.Context) {
	var req createPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio := &domain.Portfolio{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := portfolio.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.portfolios.Create(c.Request.Context(), portfolio); err != nil {
		s.log.Errorw("failed to create portfolio", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portfolio"})
		return
	}

	c.JSON(http.StatusCreated, toPortfolioResponse(portfolio))
}

func (s *Server) listPortfolios(c *gin.Context) {
	portfolios, err := s.portfolios.List(c.Request.Context())
	if err != nil {
		s.log.Errorw("failed to list portfolios", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list portfolios"})
		return
	}

	resp := make([]portfolioResponse, 0, len(portfolios))
	for _, portfolio := range portfolios {
		resp = append(resp, toPortfolioResponse(portfolio))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPortfolio(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	portfolio, err := s.portfolios.GetByID(c.Request.Context(), portfolioID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPortfolioResponse(portfolio))
}

func (s *Server) createAsset(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}
	if _, err := s.portfolios.GetByID(c.Request.Context(), portfolioID); err != nil {
		s.respondError(c, err)
		return
	}

	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := req.toDomain(portfolioID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.assets.Create(c.Request.Context(), asset); err != nil {
		s.log.Errorw("failed to create asset", "portfolio_id", portfolioID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create asset"})
		return
	}

	s.invalidateCache(c, portfolioID)
	c.JSON(http.StatusCreated, toAssetResponse(asset))
}

func (s *Server) listAssets(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	assets, err := s.assets.ListByPortfolio(c.Request.Context(), portfolioID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := make([]assetResponse, 0, len(assets))
	for _, asset := range assets {
		resp = append(resp, toAssetResponse(asset))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createChange(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}
	if _, err := s.portfolios.GetByID(c.Request.Context(), portfolioID); err != nil {
		s.respondError(c, err)
		return
	}

	var req createChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change, err := req.toDomain(portfolioID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.changes.Create(c.Request.Context(), change); err != nil {
		s.log.Errorw("failed to create planned change", "portfolio_id", portfolioID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create planned change"})
		return
	}

	s.invalidateCache(c, portfolioID)
	c.JSON(http.StatusCreated, toChangeResponse(change))
}

func (s *Server) listChanges(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	changes, err := s.changes.ListByPortfolio(c.Request.Context(), portfolioID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := make([]changeResponse, 0, len(changes))
	for _, change := range changes {
		resp = append(resp, toChangeResponse(change))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteChange(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	changeID, err := uuid.Parse(c.Param("changeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid change id"})
		return
	}

	if err := s.changes.Delete(c.Request.Context(), changeID); err != nil {
		s.respondError(c, err)
		return
	}

	s.invalidateCache(c, portfolioID)
	c.Status(http.StatusNoContent)
}

func (s *Server) getProjection(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	start, end, ok := s.parseRange(c)
	if !ok {
		return
	}

	totalOverride, err := optionalDecimal(c.Query("starting_total"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starting_total"})
		return
	}

	key := cache.Key(portfolioID, start, end, totalOverride)
	if s.cache != nil {
		if points, hit := s.cache.Get(c.Request.Context(), key); hit {
			c.JSON(http.StatusOK, toProjectionResponse(points))
			return
		}
	}

	points, err := s.projection.Project(c.Request.Context(), portfolioID, start, end, totalOverride, nil)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if s.cache != nil {
		s.cache.Set(c.Request.Context(), key, points)
	}
	c.JSON(http.StatusOK, toProjectionResponse(points))
}

func (s *Server) previewProjection(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(dateFormat, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return
	}
	end, err := time.Parse(dateFormat, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
		return
	}

	override, err := optionalDecimal(stringOrEmpty(req.StartingTotal))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starting_total"})
		return
	}

	drafts := make([]*domain.PlannedChange, 0, len(req.DraftChanges))
	for _, draftReq := range req.DraftChanges {
		draft, err := draftReq.toDomain(portfolioID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		drafts = append(drafts, draft)
	}

	// Previews bypass the cache in both directions: draft changes are
	// ephemeral by definition.
	points, err := s.projection.Project(c.Request.Context(), portfolioID, start, end, override, drafts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectionResponse(points))
}

func (s *Server) getPerformance(c *gin.Context) {
	portfolioID, ok := s.portfolioID(c)
	if !ok {
		return
	}

	start, end, ok := s.parseRange(c)
	if !ok {
		return
	}

	points, err := s.performance.Performance(c.Request.Context(), portfolioID, start, end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPerformanceResponse(points))
}

func (s *Server) portfolioID(c *gin.Context) (uuid.UUID, bool) {
	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio id"})
		return uuid.Nil, false
	}
	return portfolioID, true
}

func (s *Server) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateFormat, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing start date"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateFormat, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing end date"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrChangeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, projection.ErrInvalidRange),
		errors.Is(err, performance.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Errorw("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) invalidateCache(c *gin.Context, portfolioID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidatePortfolio(c.Request.Context(), portfolioID)
	}
}
