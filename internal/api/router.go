package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hideseekgame/hideseekgame-go/internal/api/handler"
	"github.com/hideseekgame/hideseekgame-go/internal/api/middleware"
	"github.com/hideseekgame/hideseekgame-go/internal/api/sse"
	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/services/auth"
	"github.com/hideseekgame/hideseekgame-go/internal/services/interaction"
	"github.com/hideseekgame/hideseekgame-go/internal/services/inventory"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	SessionController *session.Controller
	Registry          *registry.Service
	Inventory         *inventory.Service
	Resolver          *interaction.Resolver
	HubManager        *sse.HubManager
	Broadcaster       *sse.Broadcaster
	Clock             clock.Clock
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.Registry, cfg.HubManager)
	gameHandler := handler.NewGameHandler(cfg.SessionController, cfg.Resolver, cfg.Registry, cfg.Inventory, cfg.Broadcaster, cfg.Clock)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Session routes (all require auth)
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("", sessionHandler.Create).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("/{code}/join", sessionHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}/leave", sessionHandler.Leave).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}/start", sessionHandler.Start).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}/events", sessionHandler.Events).Methods(http.MethodGet)

	// Game routes (all require auth)
	sessions.HandleFunc("/{code}/game", gameHandler.GetState).Methods(http.MethodGet)
	sessions.HandleFunc("/{code}/game/inventory", gameHandler.GetInventory).Methods(http.MethodGet)
	sessions.HandleFunc("/{code}/game/interact", gameHandler.Interact).Methods(http.MethodPost)
	sessions.HandleFunc("/{code}/game/catch", gameHandler.Catch).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
