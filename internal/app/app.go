package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/marketpilot/journey-engine/external/siteintel"
	"github.com/marketpilot/journey-engine/external/strategist"
	"github.com/marketpilot/journey-engine/internal/config"
	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/infrastructure/account/authgw"
	cacherepo "github.com/marketpilot/journey-engine/internal/infrastructure/repository/cache"
	"github.com/marketpilot/journey-engine/internal/infrastructure/repository/memory"
	"github.com/marketpilot/journey-engine/internal/infrastructure/repository/postgres"
	"github.com/marketpilot/journey-engine/internal/interfaces/httpapi"
	basecache "github.com/marketpilot/journey-engine/internal/platform/cache"
	idgen "github.com/marketpilot/journey-engine/internal/platform/id"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
	"github.com/marketpilot/journey-engine/internal/platform/resilience"
	"github.com/marketpilot/journey-engine/internal/usecase"
)

// NewHTTPServer wires repositories, external clients, and the HTTP surface.
// The returned close func releases the database handle and must run after
// the server shuts down.
func NewHTTPServer(cfg config.Config, logger *slog.Logger, appLogger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if appLogger == nil {
		appLogger = logging.Default()
	}

	closeDB := func() error { return nil }

	var profileRepo profile.Repository
	var profileLister profile.Lister
	if cfg.DBURL == "" {
		mem := memory.NewProfileRepository()
		profileRepo = mem
		profileLister = mem
		logger.Warn("DB_URL is empty, using in-memory profile storage")
	} else {
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeDB = db.Close

		pg := postgres.NewProfileRepository(db)
		profileRepo = pg
		profileLister = pg
	}

	if cfg.CacheEnabled {
		profileRepo = cacherepo.NewProfileRepository(profileRepo, basecache.NewStore(cfg.CacheTTL))
	}

	journeyRepo := memory.NewJourneyRepository()

	analyzer := siteintel.NewClient(siteintel.ClientConfig{
		BaseURL:    cfg.SiteIntelBaseURL,
		APIKey:     cfg.SiteIntelAPIKey,
		Timeout:    cfg.SiteIntelTimeout,
		MaxRetries: cfg.SiteIntelMaxRetries,
		Logger:     appLogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SiteIntelCircuitEnabled,
			FailureThreshold: cfg.SiteIntelCircuitFailureCount,
			OpenTimeout:      cfg.SiteIntelCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SiteIntelCircuitHalfOpenMaxReq,
		},
	})

	strategistClient := strategist.NewClient(strategist.ClientConfig{
		BaseURL:    cfg.StrategistBaseURL,
		APIKey:     cfg.StrategistAPIKey,
		Timeout:    cfg.StrategistTimeout,
		MaxRetries: cfg.StrategistMaxRetries,
		Logger:     appLogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.StrategistCircuitEnabled,
			FailureThreshold: cfg.StrategistCircuitFailureCount,
			OpenTimeout:      cfg.StrategistCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.StrategistCircuitHalfOpenMaxReq,
		},
	})

	journeySvc := usecase.NewJourneyService(
		profileRepo,
		journeyRepo,
		analyzer,
		strategistClient,
		idgen.NewRandomGenerator(),
	)
	gateSvc := usecase.NewGateService(
		profileRepo,
		usecase.GateRoutes{Login: cfg.GateLoginRoute, Setup: cfg.GateSetupRoute},
		cfg.GateDecisionTTL,
		appLogger,
	)
	recomputeSvc := usecase.NewRecomputeService(profileRepo, profileLister, cfg.RecomputeMaxWorkers, appLogger)

	authClient := authgw.NewClient(
		&http.Client{Timeout: cfg.AuthGWTimeout},
		cfg.AuthGWBaseURL,
		cfg.AuthGWIntrospectPath,
		cfg.AuthGWPrincipalTTL,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AuthGWCircuitEnabled,
			FailureThreshold: cfg.AuthGWCircuitFailureCount,
			OpenTimeout:      cfg.AuthGWCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AuthGWCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(journeySvc, gateSvc, recomputeSvc, logger)
	router := httpapi.NewRouter(handler, authClient, gateSvc, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeDB, nil
}
