package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig carries billing policy defaults applied when a tenant has no
// explicit setting of its own. Values are hot-reloadable from billing.yml.
type BillingConfig struct {
	DefaultVatRatePercent float64 `mapstructure:"defaultVatRatePercent"`
	PaymentTermDays       int     `mapstructure:"paymentTermDays"`
	NumberTemplate        string  `mapstructure:"numberTemplate"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DefaultVatRatePercent: 15,
		PaymentTermDays:       30,
		NumberTemplate:        "INV-{YYYY}{MM}-{SEQ4}",
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/ajyal/config") // Volume-mounted config
	v.AddConfigPath("/etc/ajyal")            // System config
	v.AddConfigPath(".")                     // Current directory (dev mode)

	v.SetEnvPrefix("AJYAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.defaultVatRatePercent", defaults.DefaultVatRatePercent)
	v.SetDefault("billing.paymentTermDays", defaults.PaymentTermDays)
	v.SetDefault("billing.numberTemplate", defaults.NumberTemplate)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &BillingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		// keep serving the previous policy if the new file is malformed
		_ = holder.reload(v)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *BillingConfigHolder) reload(v *viper.Viper) error {
	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return err
	}
	if cfg.DefaultVatRatePercent <= 0 {
		cfg.DefaultVatRatePercent = DefaultBillingConfig().DefaultVatRatePercent
	}
	if cfg.PaymentTermDays <= 0 {
		cfg.PaymentTermDays = DefaultBillingConfig().PaymentTermDays
	}
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		cfg.NumberTemplate = DefaultBillingConfig().NumberTemplate
	}
	h.current.Store(cfg)
	return nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if v, ok := h.current.Load().(BillingConfig); ok {
		return v
	}
	return DefaultBillingConfig()
}
