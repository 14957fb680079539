package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/handlers"
	"go-marketplace/internal/marketplace/middleware"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
}

// Services groups what the HTTP surface is built from.
type Services struct {
	Conversion   handlers.ConversionService
	Locations    handlers.LocationRegistry
	Profiles     ProfilesService
	Admin        AdminService
	Refresher    handlers.RatesRefresher
	RefreshPairs []currency.Pair
	Metrics      http.Handler
}

type ProfilesService interface {
	handlers.SignupService
	handlers.CapabilitiesService
	handlers.PriceService
}

type AdminService interface {
	handlers.RatesService
	handlers.RulesService
	handlers.CatalogService
}

type Server struct {
	logger     *logging.ZapLogger
	httpServer *http.Server
	cfg        Config
}

func NewServer(
	cfg Config,
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *Server {
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           NewMux(tokenAuth, services, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	res := &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: srv,
	}

	return res
}

func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server ListenAndServe failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func NewMux(
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewLoggerContext().CreateHandler)
	router.Use(middleware.NewPanicRecover(logger).CreateHandler)
	router.Use(middleware.NewAccessCache().CreateHandler)

	if services.Metrics != nil {
		router.Handle("/metrics", services.Metrics)
	}

	router.Route("/api", func(router chi.Router) {
		router.Get("/convert", handlers.NewConversionHandler(services.Conversion, logger).ServeHTTP)
		router.Get("/currencies", handlers.NewCurrenciesHandler(logger).ServeHTTP)
		router.Get("/locations", handlers.NewLocationsHandler(services.Locations, logger).ServeHTTP)
		router.Get("/locations/{location}", handlers.NewLocationHandler(services.Locations, logger).ServeHTTP)
		router.Get("/shipping-providers", handlers.NewShippingProvidersHandler(services.Admin, logger).ServeHTTP)
		router.Get("/payment-methods", handlers.NewPaymentMethodsHandler(services.Admin, logger).ServeHTTP)
		router.Post("/profiles", handlers.NewSignupHandler(services.Profiles, logger).ServeHTTP)

		router.Group(func(router chi.Router) {
			router.Use(jwtauth.Verifier(tokenAuth))
			router.Use(jwtauth.Authenticator(tokenAuth))

			router.Route("/user", func(router chi.Router) {
				router.Get("/capabilities", handlers.NewCapabilitiesHandler(services.Profiles, logger).ServeHTTP)
				router.Get("/price", handlers.NewPriceHandler(services.Profiles, logger).ServeHTTP)
			})

			router.Route("/admin", func(router chi.Router) {
				router.Use(middleware.NewRoleRequired(access.Admin, logger).CreateHandler)

				router.Get("/rates", handlers.NewRatesListHandler(services.Admin, logger).ServeHTTP)
				router.Put("/rates/{from}/{to}", handlers.NewRateSettingHandler(services.Admin, logger).ServeHTTP)
				router.Post("/rates/refresh", handlers.NewRatesRefreshHandler(
					services.Refresher,
					services.RefreshPairs,
					logger,
				).ServeHTTP)

				router.Get("/rules", handlers.NewRulesListHandler(services.Admin, logger).ServeHTTP)
				router.Put("/rules", handlers.NewRuleUpsertHandler(services.Admin, logger).ServeHTTP)
				router.Patch("/rules/{id}", handlers.NewRuleUpdateHandler(services.Admin, logger).ServeHTTP)

				router.Post("/shipping-providers", handlers.NewShippingProviderAddingHandler(services.Admin, logger).ServeHTTP)
				router.Post("/payment-methods", handlers.NewPaymentMethodAddingHandler(services.Admin, logger).ServeHTTP)
			})
		})
	})

	return router
}
