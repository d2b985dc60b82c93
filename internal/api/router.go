package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/api/handlers"
	apimiddleware "github.com/Project-Sylos/Arbor/internal/api/middleware"
	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/sdk"
)

// Router represents the HTTP API router
type Router struct {
	arbor *sdk.Arbor
	log   *logrus.Entry
}

// NewRouter creates a new API router. A nil logger discards request logs.
func NewRouter(a *sdk.Arbor, log *logrus.Entry) *Router {
	if log == nil {
		log = logging.Component(nil, "api")
	}
	return &Router{arbor: a, log: log}
}

// SetupRoutes configures all API routes using modular handlers
func (r *Router) SetupRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Standard middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Custom middleware
	router.Use(apimiddleware.CORS)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(r.arbor)
	systemHandler := handlers.NewSystemHandler(r.arbor)
	itemHandler := handlers.NewItemHandler(r.arbor)
	treeHandler := handlers.NewTreeHandler(r.arbor)
	viewHandler := handlers.NewViewHandler(r.arbor)

	// Health check
	router.Get("/health", healthHandler.HealthCheck)

	// API routes
	router.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", healthHandler.HealthCheck)

		// System operations
		api.Get("/config", systemHandler.GetConfig)
		api.Get("/collections", systemHandler.GetCollections)
		api.Post("/reset", systemHandler.Reset)

		api.Route("/collections/{collection}", func(c chi.Router) {
			c.Get("/", systemHandler.GetCollection)
			c.Delete("/", systemHandler.DropCollection)

			// Items
			c.Get("/items", itemHandler.ListItems)
			c.Post("/items", itemHandler.AddItems)
			c.Post("/items/delete", itemHandler.DeleteItems)
			c.Get("/items/{id}", itemHandler.GetItem)
			c.Delete("/items/{id}", itemHandler.DeleteItem)
			c.Post("/seed", itemHandler.Seed)

			// Trees
			c.Get("/tree", treeHandler.GetTree)
			c.Get("/flat", treeHandler.GetFlat)
			c.Get("/annotations", treeHandler.GetAnnotations)
			c.Post("/reindex", treeHandler.Reindex)
			c.Post("/move", treeHandler.Move)
			c.Post("/structure", treeHandler.ApplyStructure)

			c.Post("/views", viewHandler.OpenView)
		})

		// View operations
		api.Route("/views/{id}", func(v chi.Router) {
			v.Get("/", viewHandler.GetView)
			v.Delete("/", viewHandler.CloseView)
			v.Post("/remove", viewHandler.Remove)
			v.Post("/sort", viewHandler.Sort)
			v.Post("/expand", viewHandler.Expand)
			v.Get("/structure", viewHandler.Structure)
		})
	})

	return router
}
