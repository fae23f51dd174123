package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	ServicePort   string `mapstructure:"SERVICE_PORT"`
	OperatorID    string `mapstructure:"OPERATOR_ID"`
	LedgerBaseURL string `mapstructure:"LEDGER_BASE_URL"`
	LedgerToken   string `mapstructure:"LEDGER_TOKEN"`
	CertsBaseURL  string `mapstructure:"CERTS_BASE_URL"`
	CertsToken    string `mapstructure:"CERTS_TOKEN"`
	NotifyURL     string `mapstructure:"NOTIFY_URL"`
	NotifySecret  string `mapstructure:"NOTIFY_SECRET"`
}

// Load reads env vars, with an optional escrow.yaml alongside the binary for
// local runs. Env always wins.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("escrow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL", "SERVICE_PORT", "OPERATOR_ID",
		"LEDGER_BASE_URL", "LEDGER_TOKEN",
		"CERTS_BASE_URL", "CERTS_TOKEN",
		"NOTIFY_URL", "NOTIFY_SECRET",
	} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("SERVICE_PORT", "8084")
	v.SetDefault("LEDGER_BASE_URL", "http://localhost:8090")
	v.SetDefault("CERTS_BASE_URL", "http://localhost:8091")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.OperatorID == "" {
		return Config{}, errors.New("OPERATOR_ID is required")
	}
	return cfg, nil
}
