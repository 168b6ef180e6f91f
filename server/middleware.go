package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())

	// CRM dashboard runs on a separate origin
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://nextmind.pro", "http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
	}))

	s.app.Use("/crm/*", func(c fiber.Ctx) error {
		c.Set("Content-Type", "application/json")
		return c.Next()
	})
}
