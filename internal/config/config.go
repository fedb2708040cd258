package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Okx      Okx      `mapstructure:"okx"`
	Strategy Strategy `mapstructure:"strategy"`
	Scraper  Scraper  `mapstructure:"scraper"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Report   Report   `mapstructure:"report"`
}

// Okx holds the configuration for the OKX public API.
type Okx struct {
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Strategy holds the configuration for the carry strategy.
type Strategy struct {
	Base      string        `mapstructure:"base"`
	Quote     string        `mapstructure:"quote"`
	Timeframe time.Duration `mapstructure:"timeframe"`
	Threshold float64       `mapstructure:"threshold"`
	// FundingRates maps a unified instrument symbol to its per-interval
	// funding rate, e.g. "BTC/USDT:USDT" -> 0.0005. Symbols absent from
	// the map fall back to the dated-futures carry formula.
	FundingRates map[string]float64 `mapstructure:"funding_rates"`
}

// Scraper holds the configuration for the market data collector.
type Scraper struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Pairs        []string      `mapstructure:"pairs"`
}

// Report holds the configuration for backtest report output.
type Report struct {
	ChartPath string `mapstructure:"chart_path"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("okx.rate_limit", 10) // requests per second
	viper.SetDefault("okx.rate_limit_burst", 5)
	viper.SetDefault("strategy.timeframe", "5m")
	viper.SetDefault("strategy.threshold", 0.05)
	viper.SetDefault("strategy.funding_rates", map[string]float64{
		"BTC/USDT:USDT": 0.0005,  // 0.05% per funding interval
		"ETH/USDT:USDT": -0.0003, // -0.03%
	})
	viper.SetDefault("scraper.poll_interval", "60s")
	viper.SetDefault("report.chart_path", "equity.png")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// viper lowercases config keys; unified symbols are uppercase.
	rates := make(map[string]float64, len(config.Strategy.FundingRates))
	for symbol, rate := range config.Strategy.FundingRates {
		rates[strings.ToUpper(symbol)] = rate
	}
	config.Strategy.FundingRates = rates
	return
}
