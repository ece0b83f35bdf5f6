package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber app. token guards /api when set; staticDir, when
// set, serves the web UI with an index.html fallback.
func NewApp(h *Handler, token, staticDir string) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "bdaybot",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return errorJSON(c, code, err.Error())
		},
	})

	app.Get("/healthz", Health)

	api := app.Group("/api", bearerAuth(token))
	api.Get("/birthdays", h.ListBirthdays)
	api.Get("/birthdays.ics", h.Calendar)
	api.Get("/birthdays/upcoming", h.Upcoming)
	api.Get("/birthdays/:id", h.GetBirthday)
	api.Post("/birthdays", h.CreateBirthday)
	api.Put("/birthdays/:id", h.UpdateBirthday)
	api.Delete("/birthdays/:id", h.DeleteBirthday)
	api.Get("/bot/status", h.Status)
	api.Get("/bot/history", h.History)
	api.Post("/bot/send-test/:id", h.SendTest)

	if dir := strings.TrimSpace(staticDir); dir != "" {
		app.Static("/", dir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(dir + "/index.html")
		})
	}
	return app
}

// bearerAuth accepts "Authorization: Bearer <token>" or ?token=<token>.
func bearerAuth(token string) fiber.Handler {
	tok := strings.TrimSpace(token)
	return func(c *fiber.Ctx) error {
		if tok == "" {
			return c.Next()
		}
		got := c.Query("token")
		if got == "" {
			ah := c.Get(fiber.HeaderAuthorization)
			if after, ok := strings.CutPrefix(ah, "Bearer "); ok {
				got = strings.TrimSpace(after)
			}
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(tok)) != 1 {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return errorJSON(c, fiber.StatusUnauthorized, "unauthorized")
		}
		return c.Next()
	}
}
