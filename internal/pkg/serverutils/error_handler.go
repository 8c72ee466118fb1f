// FILE: internal/pkg/serverutils/error_handler.go
// PURPOSE: Translate engine errors into HTTP status codes

package serverutils

import (
	"errors"

	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/router"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/vectorindex"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware catches errors returned by handlers and maps the
// engine's typed errors to stable status codes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, router.ErrEmptyQuery):
			code = fiber.StatusBadRequest
		case errors.Is(err, router.ErrUpstreamUnavailable):
			// Retryable: the complex tier has no fallback.
			code = fiber.StatusServiceUnavailable
		case errors.Is(err, vectorindex.ErrRebuildInProgress):
			code = fiber.StatusConflict
		case errors.Is(err, direct.ErrNoTemplate), errors.Is(err, semantic.ErrNoConfidentMatch):
			code = fiber.StatusNotFound
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
