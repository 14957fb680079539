package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"go-marketplace/internal/marketplace"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data/database"
	"go-marketplace/internal/marketplace/rateprovider"
	"go-marketplace/internal/marketplace/ratesmonitor"
	"go-marketplace/internal/marketplace/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	serverAddressFlag           = "address"
	serverAddressShorthand      = "a"
	serverAddressEnv            = "RUN_ADDRESS"
	serverAddressDefault        = "localhost:8080"
	rateProviderAddressFlag     = "rate-provider"
	rateProviderAddressShort    = "r"
	rateProviderAddressEnv      = "RATE_PROVIDER_ADDRESS"
	rateProviderAddressDefault  = "http://localhost:8081"
	dbConnectionStringFlag      = "database"
	dbConnectionStringShort     = "d"
	dbConnectionStringEnv       = "DATABASE_URI"
	dbConnectionStringDefault   = ""
	jwtSecretFlag               = "jwt-secret"
	jwtSecretShorthand          = "k"
	jwtSecretEnv                = "JWT_SECRET"
	jwtSecretDefault            = "secret"
	logLevelFlag                = "log-level"
	logLevelShorthand           = "l"
	logLevelEnv                 = "LOG_LEVEL"
	logLevelDefault             = "info"
	baseCurrencyFlag            = "base-currency"
	baseCurrencyEnv             = "BASE_CURRENCY"
	baseCurrencyDefault         = "USD"
	fallbackCurrencyFlag        = "fallback-currency"
	fallbackCurrencyEnv         = "FALLBACK_CURRENCY"
	fallbackCurrencyDefault     = "USD"
	rateFreshnessFlag           = "rate-freshness"
	rateFreshnessEnv            = "RATE_FRESHNESS"
	rateFreshnessDefault        = 24 * time.Hour
	refreshPeriodFlag           = "refresh-period"
	refreshPeriodEnv            = "RATE_REFRESH_PERIOD"
	refreshPeriodDefault        = time.Hour
	refreshPairsFlag            = "refresh-pairs"
	refreshPairsEnv             = "RATE_REFRESH_PAIRS"
	refreshPairsDefault         = ""
	providerTimeoutFlag         = "provider-timeout"
	providerTimeoutEnv          = "RATE_PROVIDER_TIMEOUT"
	providerTimeoutDefault      = 5 * time.Second
	providerConcurrencyFlag     = "provider-concurrency"
	providerConcurrencyEnv      = "RATE_PROVIDER_CONCURRENCY"
	providerConcurrencyDefault  = 4
	deriveInverseFlag           = "derive-inverse"
	deriveInverseEnv            = "DERIVE_INVERSE_RATES"
	deriveInverseDefault        = false
	locationsFileFlag           = "locations-file"
	locationsFileEnv            = "LOCATIONS_FILE"
	locationsFileDefault        = ""
	dotEnvFile                  = ".env"
	refreshWorkersCount         = 2
	refreshBatchSize            = 16
	shutdownTimeout             = 5 * time.Second
	jwtAlgorithm                = "HS256"
	jwtExpirationTime           = 24 * time.Hour
	defaultMaxDBConnections     = 10
	defaultDBConnectTimeout     = 5 * time.Second
	defaultRetryDelaysIncrement = 500 * time.Millisecond
)

type Config struct {
	Server           marketplace.Config
	JWTConfig        JWTConfig
	DB               database.Config
	RateProvider     rateprovider.Config
	RatesMonitor     ratesmonitor.Config
	Conversion       service.ConversionConfig
	Refresh          service.RefreshConfig
	FallbackCurrency currency.Code
	LocationsFile    string
	LogLevel         string
	ShutdownTimeout  time.Duration
}

type JWTConfig struct {
	Algorithm      string
	Secret         string
	ExpirationTime time.Duration
}

// RegisterFlags adds the settings to the persistent flags of cmd.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP(serverAddressFlag, serverAddressShorthand, serverAddressDefault, "Server address host:port")
	flags.StringP(rateProviderAddressFlag, rateProviderAddressShort, rateProviderAddressDefault, "Rate provider base URL")
	flags.StringP(dbConnectionStringFlag, dbConnectionStringShort, dbConnectionStringDefault, "PostgreSQL connection string")
	flags.StringP(jwtSecretFlag, jwtSecretShorthand, jwtSecretDefault, "JWT signing secret")
	flags.StringP(logLevelFlag, logLevelShorthand, logLevelDefault, "Log level")
	flags.String(baseCurrencyFlag, baseCurrencyDefault, "Currency conversions are composed through")
	flags.String(fallbackCurrencyFlag, fallbackCurrencyDefault, "Default currency of unknown locations")
	flags.Duration(rateFreshnessFlag, rateFreshnessDefault, "Age after which a rate is reported as stale")
	flags.Duration(refreshPeriodFlag, refreshPeriodDefault, "Scheduled rate refresh period, 0 disables it")
	flags.String(refreshPairsFlag, refreshPairsDefault, "Comma-separated FROM:TO pairs to refresh")
	flags.Duration(providerTimeoutFlag, providerTimeoutDefault, "Timeout of a single rate provider request")
	flags.Int(providerConcurrencyFlag, providerConcurrencyDefault, "Parallel rate provider requests")
	flags.Bool(deriveInverseFlag, deriveInverseDefault, "Store 1/rate for pairs fetched in one direction only")
	flags.String(locationsFileFlag, locationsFileDefault, "YAML file overriding the location registry")
}

// Load reads flags of cmd, then lets environment variables (including the
// ones from an optional .env file) override them.
func Load(cmd *cobra.Command) (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotEnvFile, err)
	}
	flags := cmd.Flags()

	serverAddress := stringSetting(cmd, serverAddressFlag, serverAddressEnv)
	rateProviderAddress := stringSetting(cmd, rateProviderAddressFlag, rateProviderAddressEnv)
	dbConnectionString := stringSetting(cmd, dbConnectionStringFlag, dbConnectionStringEnv)
	jwtSecret := stringSetting(cmd, jwtSecretFlag, jwtSecretEnv)
	logLevel := stringSetting(cmd, logLevelFlag, logLevelEnv)
	locationsFile := stringSetting(cmd, locationsFileFlag, locationsFileEnv)

	baseCurrency, err := currency.Parse(stringSetting(cmd, baseCurrencyFlag, baseCurrencyEnv))
	if err != nil {
		return nil, fmt.Errorf("invalid base currency: %w", err)
	}
	fallbackCurrency, err := currency.Parse(stringSetting(cmd, fallbackCurrencyFlag, fallbackCurrencyEnv))
	if err != nil {
		return nil, fmt.Errorf("invalid fallback currency: %w", err)
	}
	pairs, err := currency.ParsePairs(stringSetting(cmd, refreshPairsFlag, refreshPairsEnv))
	if err != nil {
		return nil, fmt.Errorf("invalid refresh pairs: %w", err)
	}

	freshness, err := durationSetting(cmd, rateFreshnessFlag, rateFreshnessEnv)
	if err != nil {
		return nil, err
	}
	refreshPeriod, err := durationSetting(cmd, refreshPeriodFlag, refreshPeriodEnv)
	if err != nil {
		return nil, err
	}
	providerTimeout, err := durationSetting(cmd, providerTimeoutFlag, providerTimeoutEnv)
	if err != nil {
		return nil, err
	}

	providerConcurrency, _ := flags.GetInt(providerConcurrencyFlag)
	if valStr, ok := os.LookupEnv(providerConcurrencyEnv); ok {
		providerConcurrency, err = strconv.Atoi(valStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", providerConcurrencyEnv, err)
		}
	}
	deriveInverse, _ := flags.GetBool(deriveInverseFlag)
	if valStr, ok := os.LookupEnv(deriveInverseEnv); ok {
		deriveInverse, err = strconv.ParseBool(valStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", deriveInverseEnv, err)
		}
	}

	return &Config{
		Server: marketplace.Config{
			ServerAddress:   serverAddress,
			ShutdownTimeout: shutdownTimeout,
		},
		JWTConfig: JWTConfig{
			Algorithm:      jwtAlgorithm,
			Secret:         jwtSecret,
			ExpirationTime: jwtExpirationTime,
		},
		DB: database.Config{
			ConnectionString: dbConnectionString,
			MaxConns:         defaultMaxDBConnections,
			ConnectTimeout:   defaultDBConnectTimeout,
		},
		RateProvider: rateprovider.Config{
			ServerAddress: rateProviderAddress,
			Timeout:       providerTimeout,
			Concurrency:   providerConcurrency,
			RetryDelays: []time.Duration{
				defaultRetryDelaysIncrement,
				2 * defaultRetryDelaysIncrement,
			},
		},
		RatesMonitor: ratesmonitor.Config{
			TickPeriod:     refreshPeriod,
			WorkersCount:   refreshWorkersCount,
			BatchSize:      refreshBatchSize,
			Pairs:          pairs,
			RefreshOnStart: true,
		},
		Conversion: service.ConversionConfig{
			BaseCurrency:    baseCurrency,
			FreshnessWindow: freshness,
		},
		Refresh: service.RefreshConfig{
			DeriveInverse: deriveInverse,
		},
		FallbackCurrency: fallbackCurrency,
		LocationsFile:    locationsFile,
		LogLevel:         logLevel,
		ShutdownTimeout:  shutdownTimeout,
	}, nil
}

func stringSetting(cmd *cobra.Command, flag, env string) string {
	val, _ := cmd.Flags().GetString(flag)
	if valStr, ok := os.LookupEnv(env); ok {
		val = valStr
	}
	return val
}

func durationSetting(cmd *cobra.Command, flag, env string) (time.Duration, error) {
	val, _ := cmd.Flags().GetDuration(flag)
	if valStr, ok := os.LookupEnv(env); ok {
		parsed, err := time.ParseDuration(valStr)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", env, err)
		}
		val = parsed
	}
	return val, nil
}
