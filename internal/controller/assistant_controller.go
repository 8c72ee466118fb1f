package controller

import (
	"ai-kindergarten-be/internal/dto"
	"ai-kindergarten-be/internal/pkg/logger"
	"ai-kindergarten-be/internal/pkg/serverutils"
	"ai-kindergarten-be/internal/service"
	internalWS "ai-kindergarten-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	TestRoute(ctx *fiber.Ctx) error
	TestDirect(ctx *fiber.Ctx) error
	Keywords(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Optimize(ctx *fiber.Ctx) error
	ServeStatsWs(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	optimizerService service.IOptimizerService
	hub              *internalWS.Hub
	logger           logger.ILogger
}

func NewAssistantController(
	assistantService service.IAssistantService,
	optimizerService service.IOptimizerService,
	hub *internalWS.Hub,
	log logger.ILogger,
) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		optimizerService: optimizerService,
		hub:              hub,
		logger:           log,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("query", c.Query)
	h.Post("test-route", c.TestRoute)
	h.Post("test-direct", c.TestDirect)
	h.Get("keywords", c.Keywords)
	h.Get("stats", c.Stats)
	h.Post("optimize", c.Optimize)
	h.Get("ws/stats", c.ServeStatsWs)
}

func (c *assistantController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.assistantService.Query(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Query routed", res))
}

func (c *assistantController) TestRoute(ctx *fiber.Ctx) error {
	var req dto.TestRouteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.assistantService.TestRoute(ctx.Context(), req.Query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Route decision", res))
}

func (c *assistantController) TestDirect(ctx *fiber.Ctx) error {
	var req dto.TestDirectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.assistantService.TestDirect(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Direct template response", res))
}

func (c *assistantController) Keywords(ctx *fiber.Ctx) error {
	res, err := c.assistantService.Keywords(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Keyword dictionary", res))
}

func (c *assistantController) Stats(ctx *fiber.Ctx) error {
	res, err := c.assistantService.Stats(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Engine statistics", res))
}

// Optimize enqueues the job and returns 202; the consumer does the work.
func (c *assistantController) Optimize(ctx *fiber.Ctx) error {
	var req dto.OptimizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.optimizerService.Enqueue(ctx.Context(), req.Type)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Optimize job accepted", res))
}

// ServeStatsWs upgrades to a websocket that streams counter snapshots.
func (c *assistantController) ServeStatsWs(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("AssistantController", "Starting stats WebSocket session", nil)
			internalWS.ServeWs(c.hub, conn)
			c.logger.Info("AssistantController", "Stats WebSocket session ended", nil)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
