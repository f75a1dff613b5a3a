package http_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/metadata"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// VersionHeader carries a JSON vector clock on PUT and DELETE. Without it the
// node picks the version.
const VersionHeader = "X-Vector-Clock"

type Server struct {
	app     *fiber.App
	cfg     config.ServerConfig
	service port.KVService
}

type versionedView struct {
	Value   []byte             `json:"value"`
	Version domain.VectorClock `json:"version"`
}

// NewServer builds the client API. metricsHandler is mounted on /metrics when
// not nil.
func NewServer(cfg config.ServerConfig, service port.KVService, metricsHandler http.Handler) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             domain.MaxValueSize + 4096,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
	}

	// Routes
	s.registerRoutes(metricsHandler)

	return s
}

func (s *Server) registerRoutes(metricsHandler http.Handler) {
	s.app.Get("/stores/:store/keys/:key", s.handleGet)
	s.app.Put("/stores/:store/keys/:key", s.handlePut)
	s.app.Delete("/stores/:store/keys/:key", s.handleDelete)

	s.app.Get("/admin/rebalancing", s.handleRebalancingStatus)
	s.app.Put("/admin/rebalancing", s.handleStartRebalancing)
	s.app.Delete("/admin/rebalancing", s.handleFinishRebalancing)

	s.app.Get("/cluster/topology", s.handleTopology)

	if metricsHandler != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}
}

func (s *Server) Start() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.HTTPPort))
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// sendServiceError maps service errors onto HTTP status codes.
func (s *Server) sendServiceError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreNotFound):
		return s.sendJSONError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrObsoleteVersion), errors.Is(err, metadata.ErrRebalancingInProgress):
		return s.sendJSONError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConnectivity):
		sdklogger.Warnw("Request failed on donor", "op", op, "error", err.Error())
		return s.sendJSONError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		sdklogger.Errorw("Request failed", "op", op, "error", err.Error())
		return s.sendJSONError(c, fiber.StatusInternalServerError, err.Error())
	}
}

func keyParam(c *fiber.Ctx) (domain.Key, error) {
	raw, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		return nil, &domain.ValidationError{Field: "key", Reason: "is not a valid path segment"}
	}
	return domain.Key(raw), nil
}

func versionHeader(c *fiber.Ctx) (*domain.VectorClock, error) {
	raw := c.Get(VersionHeader)
	if raw == "" {
		return nil, nil
	}
	version := domain.NewVectorClock()
	if err := json.Unmarshal([]byte(raw), &version); err != nil {
		return nil, &domain.ValidationError{Field: VersionHeader, Reason: "is not a JSON vector clock"}
	}
	if version.Versions == nil {
		version.Versions = make(map[domain.NodeID]uint64)
	}
	return &version, nil
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return s.sendServiceError(c, "get", err)
	}

	versions, err := s.service.Get(c.UserContext(), c.Params("store"), key)
	if err != nil {
		return s.sendServiceError(c, "get", err)
	}
	if len(versions) == 0 {
		return s.sendJSONError(c, fiber.StatusNotFound, "key not found")
	}

	views := make([]versionedView, 0, len(versions))
	for _, v := range versions {
		views = append(views, versionedView{Value: v.Value, Version: v.Version})
	}
	return c.JSON(fiber.Map{"versions": views})
}

func (s *Server) handlePut(c *fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return s.sendServiceError(c, "put", err)
	}
	version, err := versionHeader(c)
	if err != nil {
		return s.sendServiceError(c, "put", err)
	}

	// The body buffer is reused by fasthttp after the handler returns.
	value := append([]byte{}, c.Body()...)
	written, err := s.service.Put(c.UserContext(), c.Params("store"), key, value, version)
	if err != nil {
		return s.sendServiceError(c, "put", err)
	}
	return c.JSON(fiber.Map{"version": written})
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return s.sendServiceError(c, "delete", err)
	}
	version, err := versionHeader(c)
	if err != nil {
		return s.sendServiceError(c, "delete", err)
	}

	deleted, err := s.service.Delete(c.UserContext(), c.Params("store"), key, version)
	if err != nil {
		return s.sendServiceError(c, "delete", err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func (s *Server) handleRebalancingStatus(c *fiber.Ctx) error {
	return c.JSON(s.service.RebalancingStatus(c.UserContext()))
}

func (s *Server) handleStartRebalancing(c *fiber.Ctx) error {
	var plan domain.RebalancingPlan
	if err := json.Unmarshal(c.Body(), &plan); err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Invalid rebalancing plan")
	}
	if err := s.service.StartRebalancing(c.UserContext(), plan); err != nil {
		return s.sendServiceError(c, "start_rebalancing", err)
	}
	return c.JSON(s.service.RebalancingStatus(c.UserContext()))
}

func (s *Server) handleFinishRebalancing(c *fiber.Ctx) error {
	if err := s.service.FinishRebalancing(c.UserContext()); err != nil {
		return s.sendServiceError(c, "finish_rebalancing", err)
	}
	return c.JSON(s.service.RebalancingStatus(c.UserContext()))
}

func (s *Server) handleTopology(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"nodes": s.service.Topology(c.UserContext())})
}
