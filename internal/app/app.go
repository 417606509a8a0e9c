package app

import (
	"log"
	"strings"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/auth"
	"realestate-backend/internal/config"
	"realestate-backend/internal/estate"
	"realestate-backend/internal/models"
	"realestate-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// New - fiber uygulamasını kurar ve tüm route'ları bağlar.
// Testler de aynı uygulamayı bu fonksiyonla ayağa kaldırır.
func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Kullanıcı yönetimi
	protected.Get("/users", users.ListUsersHandler())
	protected.Get("/users/:id", users.GetUserHandler())
	protected.Put("/users/:id", users.UpdateUserHandler())
	protected.Patch("/users/:id", users.UpdateUserHandler())
	protected.Post("/users", auth.RequireRole(models.RoleAdmin), users.CreateUserHandler())
	protected.Delete("/users/:id", auth.RequireRole(models.RoleAdmin), users.DeleteUserHandler())

	// Mülkler
	protected.Post("/properties", estate.CreatePropertyHandler())
	protected.Get("/properties", estate.ListPropertiesHandler())
	protected.Get("/properties/:id", estate.GetPropertyHandler())
	protected.Put("/properties/:id", estate.UpdatePropertyHandler())
	protected.Patch("/properties/:id", estate.UpdatePropertyHandler())
	protected.Delete("/properties/:id", estate.DeletePropertyHandler())

	// Sahiplik işlemleri
	protected.Post("/transactions", estate.CreateTransactionHandler())
	protected.Get("/transactions", estate.ListTransactionsHandler())
	protected.Get("/transactions/:id", estate.GetTransactionHandler())
	protected.Put("/transactions/:id", estate.UpdateTransactionHandler())
	protected.Patch("/transactions/:id", estate.UpdateTransactionHandler())
	protected.Delete("/transactions/:id", estate.DeleteTransactionHandler())

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler())

	return app
}
