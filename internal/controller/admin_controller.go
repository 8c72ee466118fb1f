// FILE: internal/controller/admin_controller.go
package controller

import (
	"strconv"

	"ai-kindergarten-be/internal/pkg/logger"
	"ai-kindergarten-be/internal/pkg/serverutils"
	"ai-kindergarten-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Reset(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	assistantService service.IAssistantService
	logger           logger.ILogger
}

func NewAdminController(assistantService service.IAssistantService, log logger.ILogger) IAdminController {
	return &adminController{
		assistantService: assistantService,
		logger:           log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("reset", c.Reset)
	h.Get("logs", c.GetLogs)
}

func (c *adminController) Reset(ctx *fiber.Ctx) error {
	if err := c.assistantService.Reset(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Engine reset", fiber.Map{"status": "ok"}))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := c.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}
