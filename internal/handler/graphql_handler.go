package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/graph"
	"country-atlas-service/internal/metrics"
)

const welcomeBanner = "-------------Welcome------------"

type GraphQLHandler struct {
	schema  graphql.Schema
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewGraphQLHandler(schema graphql.Schema, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *GraphQLHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLHandler{
		schema:  schema,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Welcome answers plain GETs on the endpoint.
func (h *GraphQLHandler) Welcome(c *fiber.Ctx) error {
	return c.SendString(welcomeBanner)
}

// Query executes a GraphQL request. A result carrying an UNAVAILABLE error is
// served with 503 so that load balancers see the outage.
func (h *GraphQLHandler) Query(c *fiber.Ctx) error {
	var req graph.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res := graph.Execute(ctx, h.schema, req)

	status := fiber.StatusOK
	for _, code := range graph.ErrorCodes(res) {
		h.metrics.ObserveGraphQLError(code)
		if code == apperr.CodeUnavailable {
			status = fiber.StatusServiceUnavailable
		}
	}
	if res.HasErrors() {
		h.logger.Debug("graphql request failed",
			zap.Stringer("request", req),
			zap.Int("errors", len(res.Errors)),
			zap.String("first_error", res.Errors[0].Message),
		)
	}

	return c.Status(status).JSON(res)
}
