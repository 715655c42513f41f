package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"recipes_backend/auth"
	"recipes_backend/metrics"
	"recipes_backend/services"
)

// Options wires the router's dependencies.
type Options struct {
	Recipes *services.RecipeService
	Saved   *services.SavedRecipeService
	Auth    *auth.Service

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// Limiter applies to the /recipes and /auth routes. Nil disables limiting.
	Limiter        *rate.Limiter
	AllowedOrigins []string
	ImageHeight    uint
	HTTPClient     *http.Client
}

// NewRouter builds the HTTP handler for the whole server.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(baseMiddleware(logger, opts.Metrics)...)

	r.HandleFunc("/healthz", Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(opts.Gatherer)).Methods(http.MethodGet)

	limit := RateLimit(opts.Limiter, opts.Metrics)

	ah := NewAuthHandler(opts.Auth, logger)
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.Use(limit)
	authRouter.HandleFunc("/register", ah.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", ah.Login).Methods(http.MethodPost)

	rh := NewRecipeHandler(opts.Recipes, logger)
	sh := NewSavedRecipeHandler(opts.Saved, logger)
	ih := NewImageHandler(opts.Recipes, opts.HTTPClient, opts.ImageHeight, logger)
	create := VerifyToken(opts.Auth)(http.HandlerFunc(rh.CreateRecipe))

	api := r.PathPrefix("/recipes").Subrouter()
	api.Use(limit)
	for _, root := range []string{"", "/"} {
		api.HandleFunc(root, rh.GetRecipes).Methods(http.MethodGet)
		api.Handle(root, create).Methods(http.MethodPost)
		api.HandleFunc(root, sh.SaveRecipe).Methods(http.MethodPut)
	}
	// Saved-recipe routes go before /{recipeId} so "savedRecipes" is not read as an id.
	api.HandleFunc("/savedRecipes/ids/{userId}", sh.GetSavedRecipeIDs).Methods(http.MethodGet)
	api.HandleFunc("/savedRecipes/{userId}", sh.GetSavedRecipes).Methods(http.MethodGet)
	api.HandleFunc("/{recipeId}/image", ih.FetchRecipeImage).Methods(http.MethodGet)
	api.HandleFunc("/{recipeId}", rh.GetRecipe).Methods(http.MethodGet)
	api.HandleFunc("/{recipeId}", rh.UpdateRecipe).Methods(http.MethodPut)
	api.HandleFunc("/{recipeId}", rh.DeleteRecipe).Methods(http.MethodDelete)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// baseMiddleware runs on every matched route. Instrument wraps Recover so a
// recovered panic is recorded as a 500.
func baseMiddleware(logger *slog.Logger, m *metrics.Metrics) []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{RequestID, Instrument(logger, m), Recover(logger, m)}
}

// Healthz reports that the process is serving.
// GET /healthz
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
