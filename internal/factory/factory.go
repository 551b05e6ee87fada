package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/hideseekgame/hideseekgame-go/internal/api/sse"
	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/random"
	"github.com/hideseekgame/hideseekgame-go/internal/services/auth"
	"github.com/hideseekgame/hideseekgame-go/internal/services/interaction"
	"github.com/hideseekgame/hideseekgame-go/internal/services/inventory"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/services/roles"
	"github.com/hideseekgame/hideseekgame-go/internal/services/session"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
	"github.com/hideseekgame/hideseekgame-go/internal/storage/memory"
	redisstorage "github.com/hideseekgame/hideseekgame-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService       *auth.Service
	Registry          *registry.Service
	Inventory         *inventory.Service
	Roles             *roles.Service
	Resolver          *interaction.Resolver
	SessionController *session.Controller
	HubManager        *sse.HubManager
	Broadcaster       *sse.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RolesConfig holds configuration for hunter assignment (optional)
	// If zero value, defaults to roles.DefaultConfig()
	RolesConfig roles.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	rolesCfg := cfg.RolesConfig
	if rolesCfg.AssignTimeout == 0 {
		rolesCfg = roles.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, authCfg, rolesCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, rolesCfg roles.Config, logger *slog.Logger) *App {
	// Create services
	authService := auth.New(store, clk, authCfg, logger)
	registryService := registry.New(store, clk, logger)
	inventoryService := inventory.New(store, logger)
	rolesService := roles.New(registryService, rnd, rolesCfg, logger)
	resolver := interaction.NewResolver(store, registryService, inventoryService, clk, logger)
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	sessionController := session.NewController(store, registryService, rolesService, resolver, broadcaster, clk, rnd, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		AuthService:       authService,
		Registry:          registryService,
		Inventory:         inventoryService,
		Roles:             rolesService,
		Resolver:          resolver,
		SessionController: sessionController,
		HubManager:        hubManager,
		Broadcaster:       broadcaster,
	}
}
