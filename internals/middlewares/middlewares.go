package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"sekolahku_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware dasar (urutan penting: recovery paling luar)
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
}
