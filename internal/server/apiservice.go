// Package server exposes the radar product index and PNG files over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"radarview/internal/cache"
	"radarview/internal/common"
	"radarview/internal/convert"
	"radarview/internal/core"
	"radarview/internal/observability"
	"radarview/internal/store"
)

const defaultAllowedOrigin = "http://127.0.0.1:3001"

type APIService struct {
	core    *core.CoreService
	cache   cache.Cache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// ProductItem is one entry of a list or latest response.
type ProductItem struct {
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	RainScore *float64 `json:"rain_score,omitempty"`
}

type listQuery struct {
	Start string `query:"start" validate:"required"`
	End   string `query:"end" validate:"required"`
}

func NewAPIService(coreService *core.CoreService, responseCache cache.Cache, metrics *observability.Metrics, logger *slog.Logger) *APIService {
	return &APIService{
		core:    coreService,
		cache:   responseCache,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/:product/list", s.listProducts)
	api.GET("/:product/latest", s.latestProduct)
	api.GET("/:product/thumb/:filename", s.thumbnail)
	api.GET("/:product/:filename", s.serveFile)
}

func (s *APIService) listProducts(c echo.Context) error {
	product, err := s.lookupProduct(c)
	if err != nil {
		return err
	}

	var query listQuery
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	start, err := time.Parse(time.RFC3339, query.Start)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid start time: %v", err))
	}
	end, err := time.Parse(time.RFC3339, query.End)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid end time: %v", err))
	}

	cacheKey := fmt.Sprintf("list:%s:%d:%d", product.Name, start.Unix(), end.Unix())
	if body, found := s.cachedResponse(c, cacheKey); found {
		return c.JSONBlob(http.StatusOK, body)
	}

	products, err := s.core.Store().ListByRange(product.Name, start, end)
	if err != nil {
		s.logger.Error("failed to list products", "product", product.Name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	items := make([]ProductItem, 0, len(products))
	for _, p := range products {
		items = append(items, toItem(p))
	}
	return s.cacheAndRespond(c, cacheKey, items)
}

func (s *APIService) latestProduct(c echo.Context) error {
	product, err := s.lookupProduct(c)
	if err != nil {
		return err
	}

	cacheKey := "latest:" + product.Name
	if body, found := s.cachedResponse(c, cacheKey); found {
		return c.JSONBlob(http.StatusOK, body)
	}

	latest, err := s.core.Store().Latest(product.Name)
	if err != nil {
		s.logger.Error("failed to look up latest product", "product", product.Name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up latest product")
	}
	if latest == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no products for %s", product.Name))
	}
	return s.cacheAndRespond(c, cacheKey, toItem(latest))
}

func (s *APIService) serveFile(c echo.Context) error {
	path, err := s.resolveFile(c)
	if err != nil {
		return err
	}
	return c.File(path)
}

func (s *APIService) thumbnail(c echo.Context) error {
	path, err := s.resolveFile(c)
	if err != nil {
		return err
	}

	width := s.core.Config().ThumbnailWidth
	if raw := c.QueryParam("width"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil || width <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid width: %s", raw))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read product file", "path", path, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read product file")
	}

	scale, err := convert.NewPixelScaleCommand(map[string]any{"width": width})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build thumbnail scaler")
	}
	thumb, err := scale.Execute(data)
	if err != nil {
		s.logger.Error("failed to scale thumbnail", "path", path, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to scale thumbnail")
	}
	return c.Blob(http.StatusOK, "image/png", thumb)
}

// lookupProduct resolves the :product path parameter against the configuration.
func (s *APIService) lookupProduct(c echo.Context) (*core.ProductConfig, error) {
	name := c.Param("product")
	product, ok := s.core.Product(name)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown product: %s", name))
	}
	return product, nil
}

// resolveFile maps :product/:filename to a path inside the product's PNG
// directory, rejecting anything that could escape it.
func (s *APIService) resolveFile(c echo.Context) (string, error) {
	product, err := s.lookupProduct(c)
	if err != nil {
		return "", err
	}

	filename := c.Param("filename")
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid filename")
	}

	path := filepath.Join(s.core.Config().PNGDir(product.Name), filename)
	if _, err := os.Stat(path); err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no such file: %s", filename))
	}
	return path, nil
}

func (s *APIService) cachedResponse(c echo.Context, key string) ([]byte, bool) {
	body, found := s.cache.Get(c.Request().Context(), key)
	if found {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return body, true
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	return nil, false
}

func (s *APIService) cacheAndRespond(c echo.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode response")
	}
	s.cache.Set(c.Request().Context(), key, body, s.core.Config().CacheTTL())
	return c.JSONBlob(http.StatusOK, body)
}

func toItem(p *store.Product) ProductItem {
	item := ProductItem{
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
		URL:       fmt.Sprintf("/api/%s/%s", p.Product, p.Filename),
	}
	if p.HasScore() {
		score := p.RainScore
		item.RainScore = &score
	}
	return item
}

// DefineServer builds the echo instance with the shared middleware stack.
func DefineServer(config *core.ServiceConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Configure request logger to skip the health check/probe endpoint
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogURI:      true,
		LogError:    true,
		LogRemoteIP: true,
		HandleError: false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remoteIp", v.RemoteIP,
			}
			if v.Error != nil {
				logger.Error("request", append(attrs, "error", v.Error)...)
			} else {
				logger.Info("request", attrs...)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{defaultAllowedOrigin}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
	}))

	e.Validator = &common.GenericEchoValidator{}

	return e
}
