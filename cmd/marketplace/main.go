package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-marketplace/cmd/marketplace/config"
	"go-marketplace/internal/marketplace"
	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data/database"
	"go-marketplace/internal/marketplace/data/dbrepository"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/internal/marketplace/metrics"
	"go-marketplace/internal/marketplace/rateprovider"
	"go-marketplace/internal/marketplace/ratesmonitor"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/jwtfactory"
	"go-marketplace/pkg/logging"
	"go-marketplace/pkg/pgxstorage"

	"github.com/go-chi/jwtauth/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	rootCtx, cancelCtx := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGABRT,
	)
	defer cancelCtx()

	if err := newRootCommand().ExecuteContext(rootCtx); err != nil {
		cancelCtx()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "marketplace",
		Short:        "Marketplace currency and feature access service",
		SilenceUsage: true,
	}
	config.RegisterFlags(root)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server and the scheduled rate refresh",
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "refresh-rates",
			Short: "Refresh exchange rates once and exit",
			RunE:  refreshRates,
		},
		newIssueTokenCommand(),
	)
	return root
}

// app holds what every subcommand builds from the configuration.
type app struct {
	cfg                *config.Config
	logger             *logging.ZapLogger
	storage            *pgxstorage.DBStorage
	repository         *dbrepository.DBRepository
	transactionManager *pgxstorage.TransactionsManager
	registry           *location.Registry
	metrics            *metrics.Metrics
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewZapLogger(level)
	if err != nil {
		return nil, err
	}

	registry, err := location.NewRegistry(cfg.FallbackCurrency)
	if err != nil {
		return nil, err
	}
	if cfg.LocationsFile != "" {
		if err := registry.LoadOverrides(cfg.LocationsFile); err != nil {
			return nil, err
		}
	}
	if len(cfg.RatesMonitor.Pairs) == 0 {
		cfg.RatesMonitor.Pairs = currency.PairsAgainst(cfg.Conversion.BaseCurrency, registry.Currencies())
	}

	dbFactory := database.NewPgxDatabaseFactory(cfg.DB)
	storage, err := pgxstorage.New(cmd.Context(), dbFactory)
	if err != nil {
		return nil, err
	}
	repository := dbrepository.New(storage, logger)

	return &app{
		cfg:                cfg,
		logger:             logger,
		storage:            storage,
		repository:         repository,
		transactionManager: pgxstorage.NewTransactionsManager(storage),
		registry:           registry,
		metrics:            metrics.New(),
	}, nil
}

func (a *app) close() {
	a.storage.Close()
	_ = a.logger.Sync()
}

func (a *app) tokenAuth() *jwtauth.JWTAuth {
	return jwtauth.New(a.cfg.JWTConfig.Algorithm, []byte(a.cfg.JWTConfig.Secret), nil)
}

func (a *app) refresher() *service.Refresher {
	provider := rateprovider.New(a.cfg.RateProvider, a.logger)
	return service.NewRefresher(a.repository, provider, a.cfg.Refresh, a.metrics, a.logger)
}

func serve(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tokenAuth := a.tokenAuth()
	tokenFactory := jwtfactory.New(tokenAuth, a.cfg.JWTConfig.ExpirationTime)

	resolver := access.NewResolver(a.repository, a.registry, a.logger)
	converter := service.NewConverter(a.repository, a.cfg.Conversion, a.metrics, a.logger)
	refresher := a.refresher()
	adminService := service.NewAdmin(a.repository, a.transactionManager, a.registry, a.logger)
	profilesService := service.NewProfiles(
		a.repository,
		a.transactionManager,
		resolver,
		a.registry,
		converter,
		tokenFactory,
		a.logger,
	)

	server := marketplace.NewServer(a.cfg.Server, tokenAuth, marketplace.Services{
		Conversion:   converter,
		Locations:    a.registry,
		Profiles:     profilesService,
		Admin:        adminService,
		Refresher:    refresher,
		RefreshPairs: a.cfg.RatesMonitor.Pairs,
		Metrics:      a.metrics.Handler(),
	}, a.logger)

	var monitor *ratesmonitor.RatesMonitor
	if a.cfg.RatesMonitor.TickPeriod > 0 {
		monitor = ratesmonitor.NewRatesMonitor(a.cfg.RatesMonitor, refresher, a.logger)
	}

	if err := run(cmd.Context(), a.cfg, server, monitor, a.logger); err != nil {
		a.logger.ErrorCtx(cmd.Context(), "Server shutdown with error", zap.Error(err))
		return err
	}
	a.logger.InfoCtx(cmd.Context(), "Server shutdown gracefully")
	return nil
}

func run(
	rootCtx context.Context,
	cfg *config.Config,
	server *marketplace.Server,
	monitor *ratesmonitor.RatesMonitor,
	logger *logging.ZapLogger,
) error {
	g, ctx := errgroup.WithContext(rootCtx)

	context.AfterFunc(ctx, func() {
		ctx, cancelCtx := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelCtx()

		<-ctx.Done()
		log.Fatal("failed to gracefully shutdown the server")
	})

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if monitor != nil {
		g.Go(func() error {
			monitor.Run()
			return nil
		})
	}

	g.Go(func() error {
		defer logger.InfoCtx(ctx, "Shutting down server")
		<-ctx.Done()
		if monitor != nil {
			monitor.Stop()
		}
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("goroutine error occured: %w", err)
	}

	return nil
}

func refreshRates(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.refresher().RefreshRates(cmd.Context(), a.cfg.RatesMonitor.Pairs)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		cmd.PrintErrf("%s: %v\n", f.Pair, f.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d updated, %d unchanged, %d failed\n",
		result.Batch, len(result.Updated), len(result.Unchanged), len(result.Failed))
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d pairs failed", len(result.Failed))
	}
	return nil
}

const (
	profileIDFlag = "profile-id"
	adminFlag     = "admin"
	adminProfile  = "0"
)

func newIssueTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a bearer token for a profile or for an administrator",
		RunE:  issueToken,
	}
	cmd.Flags().Int64(profileIDFlag, 0, "Profile to issue the token for")
	cmd.Flags().Bool(adminFlag, false, "Issue an administrator token")
	cmd.MarkFlagsMutuallyExclusive(profileIDFlag, adminFlag)
	cmd.MarkFlagsOneRequired(profileIDFlag, adminFlag)
	return cmd
}

func issueToken(cmd *cobra.Command, _ []string) error {
	isAdmin, _ := cmd.Flags().GetBool(adminFlag)
	if isAdmin {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		tokenAuth := jwtauth.New(cfg.JWTConfig.Algorithm, []byte(cfg.JWTConfig.Secret), nil)
		token, err := jwtfactory.New(tokenAuth, cfg.JWTConfig.ExpirationTime).Generate(map[string]string{
			service.ProfileIDClaimName: adminProfile,
			service.RoleClaimName:      string(access.Admin),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	profileID, _ := cmd.Flags().GetInt64(profileIDFlag)
	profiles := service.NewProfiles(
		a.repository,
		a.transactionManager,
		access.NewResolver(a.repository, a.registry, a.logger),
		a.registry,
		service.NewConverter(a.repository, a.cfg.Conversion, a.metrics, a.logger),
		jwtfactory.New(a.tokenAuth(), a.cfg.JWTConfig.ExpirationTime),
		a.logger,
	)
	token, err := profiles.IssueToken(cmd.Context(), profileID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
