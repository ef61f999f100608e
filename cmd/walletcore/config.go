package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"walletcore/internal/logger"
)

const (
	defaultListenAddr         = "localhost:8080"
	defaultLoggingLevel       = logger.LevelInfo
	defaultEnvironment        = logger.EnvProduction
	defaultBankGatewayAddr    = "http://localhost:3000"
	defaultSystemWalletNumber = "W00000000000001"
	defaultCurrency           = "TRY"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the walletcore service will be run
	ListenAddr string

	// Bank gateway address settlement requests go to
	BankGatewayAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Number of the wallet collected fees accumulate on
	SystemWalletNumber string

	// Currency of the wallet opened at registration and of the system wallet
	DefaultCurrency string

	// RabbitMQ url to publish audit events to. Audit stays postgres only when empty
	AMQPURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:           defaultLoggingLevel,
		ListenAddr:         defaultListenAddr,
		BankGatewayAddr:    defaultBankGatewayAddr,
		Environment:        defaultEnvironment,
		SystemWalletNumber: defaultSystemWalletNumber,
		DefaultCurrency:    defaultCurrency,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"SECRET_KEY":           setString(&c.SecretKey),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"BANK_GATEWAY_ADDRESS": setString(&c.BankGatewayAddr),
		"SYSTEM_WALLET_NUMBER": setString(&c.SystemWalletNumber),
		"DEFAULT_CURRENCY":     setString(&c.DefaultCurrency),
		"AMQP_URL":             setString(&c.AMQPURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("walletcore", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.BankGatewayAddr, "bank-gateway", "b", c.BankGatewayAddr, "Bank gateway address")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.SystemWalletNumber, "system-wallet", c.SystemWalletNumber, "System revenue wallet number")
	fs.StringVar(&c.DefaultCurrency, "currency", c.DefaultCurrency, "Default wallet currency")
	fs.StringVar(&c.AMQPURL, "amqp-url", c.AMQPURL, "RabbitMQ url for audit events")

	return fs.Parse(args)
}
