package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"doccatalog/internal/service"
)

// RegisterRoutes attaches the catalog routes to router. Health routes are
// registered by RegisterProbes so they stay outside authentication.
func RegisterRoutes(router fiber.Router, svc service.CatalogService) {
	router.Get("/me", Profile())
	router.Get("/categories", ListCategories(svc))

	router.Get("/documents", ListDocuments(svc))
	router.Post("/documents", CreateDocument(svc))
	router.Post("/documents/upload", UploadDocument(svc))
	router.Get("/documents/:id", GetDocument(svc))
	router.Patch("/documents/:id", UpdateDocument(svc))
	router.Delete("/documents/:id", DeleteDocument(svc))
	router.Post("/documents/:id/favorite", ToggleFavorite(svc))

	router.Get("/view", GetView(svc))
	router.Patch("/view", UpdateView(svc))
}

// RegisterProbes attaches the unauthenticated health endpoints. db may be nil.
func RegisterProbes(router fiber.Router, db *sql.DB) {
	router.Get("/health", HealthCheck(db))
	router.Get("/healthz", LivenessProbe())
}
