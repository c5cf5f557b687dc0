package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TariffConfig holds the pricing rules applied when an invoice is generated.
type TariffConfig struct {
	Currency   string             `mapstructure:"currency"`
	TaxRate    float64            `mapstructure:"taxRate"`
	DueMonths  int                `mapstructure:"dueMonths"`
	UnitPrices map[string]float64 `mapstructure:"unitPrices"`
}

func DefaultTariffConfig() TariffConfig {
	return TariffConfig{
		Currency:  "FC",
		TaxRate:   0.18,
		DueMonths: 1,
		UnitPrices: map[string]float64{
			"DOMESTIC":   150,
			"COMMERCIAL": 120,
			"INDUSTRIAL": 100,
		},
	}
}

// UnitPrice returns the price per kWh for a subscription type.
func (c TariffConfig) UnitPrice(subscriptionType string) (decimal.Decimal, bool) {
	price, ok := c.UnitPrices[strings.ToUpper(strings.TrimSpace(subscriptionType))]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(price), true
}

// Tax returns the flat tax rate as a decimal fraction.
func (c TariffConfig) Tax() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRate)
}

type TariffHolder struct {
	current atomic.Value // holds TariffConfig
}

// NewStaticTariffHolder returns a holder that never reloads.
func NewStaticTariffHolder(cfg TariffConfig) (*TariffHolder, error) {
	cfg = normalizeTariffConfig(cfg)
	if err := validateTariffConfig(cfg); err != nil {
		return nil, err
	}
	holder := &TariffHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

// NewTariffHolder reads tariff.yml and watches it for changes.
func NewTariffHolder(log *zap.Logger) (*TariffHolder, error) {
	v := viper.New()

	v.SetConfigName("tariff")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/snelcrm/config")
	v.AddConfigPath("/etc/snelcrm")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SNELCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultTariffConfig()
	v.SetDefault("tariff.currency", defaults.Currency)
	v.SetDefault("tariff.taxRate", defaults.TaxRate)
	v.SetDefault("tariff.dueMonths", defaults.DueMonths)
	v.SetDefault("tariff.unitPrices", defaults.UnitPrices)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	cfg, err := decodeTariff(v)
	if err != nil {
		return nil, err
	}

	holder := &TariffHolder{}
	holder.current.Store(cfg)

	if watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeTariff(v)
			if err != nil {
				log.Warn("tariff reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("tariff reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *TariffHolder) Get() TariffConfig {
	return h.current.Load().(TariffConfig)
}

func decodeTariff(v *viper.Viper) (TariffConfig, error) {
	var cfg TariffConfig
	if err := v.UnmarshalKey("tariff", &cfg); err != nil {
		return TariffConfig{}, err
	}
	cfg = normalizeTariffConfig(cfg)
	if err := validateTariffConfig(cfg); err != nil {
		return TariffConfig{}, err
	}
	return cfg, nil
}

// viper lowercases map keys, subscription types are upper case everywhere else.
func normalizeTariffConfig(cfg TariffConfig) TariffConfig {
	prices := make(map[string]float64, len(cfg.UnitPrices))
	for key, price := range cfg.UnitPrices {
		prices[strings.ToUpper(strings.TrimSpace(key))] = price
	}
	cfg.UnitPrices = prices
	cfg.Currency = strings.TrimSpace(cfg.Currency)
	return cfg
}

func validateTariffConfig(cfg TariffConfig) error {
	if len(cfg.UnitPrices) == 0 {
		return errors.New("tariff.unitPrices cannot be empty")
	}
	for key, price := range cfg.UnitPrices {
		if price <= 0 {
			return fmt.Errorf("tariff.unitPrices.%s must be positive", key)
		}
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return errors.New("tariff.taxRate must be within [0, 1)")
	}
	if cfg.DueMonths <= 0 {
		return errors.New("tariff.dueMonths must be positive")
	}
	if cfg.Currency == "" {
		return errors.New("tariff.currency cannot be empty")
	}
	return nil
}
