package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tweetwatch/internal/handlers"
	"tweetwatch/internal/handlers/api"
	"tweetwatch/internal/manage"
	"tweetwatch/internal/middleware"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(svc *manage.Service) {
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg.AdminToken)
	if !authMiddleware.Enabled() {
		s.log.Warn().Msg("ADMIN_TOKEN is empty; admin api is unauthenticated")
	}

	keywordHandler := api.NewKeywordHandler(svc)
	recipientHandler := api.NewRecipientHandler(svc)
	mappingHandler := api.NewMappingHandler(svc)
	adminHandler := api.NewAdminHandler(svc)
	dashboardHandler := handlers.NewDashboardHandler(svc)

	s.App.Get("/healthz", api.Healthz)
	if s.Cfg.MetricsEnabled {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	admin := s.App.Group("/admin", authMiddleware.RequireToken)

	admin.Get("/", dashboardHandler.Show)

	admin.Get("/keywords", keywordHandler.List)
	admin.Post("/keywords", keywordHandler.Create)
	admin.Put("/keywords/:id", keywordHandler.Update)
	admin.Delete("/keywords/:id", keywordHandler.Delete)

	admin.Get("/recipients", recipientHandler.List)
	admin.Post("/recipients", recipientHandler.Create)
	admin.Put("/recipients/:id", recipientHandler.Update)
	admin.Delete("/recipients/:id", recipientHandler.Delete)

	admin.Get("/mappings", mappingHandler.List)
	admin.Post("/mappings", mappingHandler.Create)
	admin.Delete("/mappings/:keywordId/:recipientId", mappingHandler.Delete)

	admin.Post("/index/refresh", adminHandler.RefreshIndex)
	admin.Get("/status", adminHandler.Status)
}
