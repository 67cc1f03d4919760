package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifSvc "sekolahku_backend/internals/features/home/notifications/service"
	authMw "sekolahku_backend/internals/middlewares/auth"
	routeDetails "sekolahku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	notifier := notifSvc.NewDBNotifier(db)

	// ===================== GROUPS =====================

	log.Println("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u",
		authMw.AuthJWT(authMw.AuthJWTOpts{
			Secret:              os.Getenv("JWT_SECRET"),
			AllowCookieFallback: true,
		}),
	)

	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a",
		authMw.AuthJWT(authMw.AuthJWTOpts{
			Secret:              os.Getenv("JWT_SECRET"),
			AllowCookieFallback: true,
		}),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting School routes...")
	routeDetails.SchoolUserRoutes(user, db, notifier)
	routeDetails.SchoolAdminRoutes(admin, db, notifier)

	log.Println("[INFO] Mounting Home routes...")
	routeDetails.HomeUserRoutes(user, db)

	// uptime sederhana
	app.Get("/api/uptime", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"uptime": time.Since(startTime).String()})
	})
}
