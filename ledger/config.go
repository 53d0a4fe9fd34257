package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

// DefaultDateFormat renders dates as day/month/year in the display timezone.
const DefaultDateFormat = "02/01/2006 15:04:05 MST"

// Settings configures the cost basis calculation.
type Settings struct {
	// MainCurrency is the fiat currency all rates and costs are expressed in.
	MainCurrency asset.Asset `json:"main_currency" yaml:"main_currency"`

	// TaxfreeAfterPeriod is how long a lot must be held before spending it is
	// tax free. Nil disables the rule.
	TaxfreeAfterPeriod *time.Duration `json:"taxfree_after_period,omitempty" yaml:"taxfree_after_period,omitempty"`

	// DateDisplayFormat is a time layout used in diagnostics and reports.
	DateDisplayFormat string `json:"date_display_format,omitempty" yaml:"date_display_format,omitempty"`

	// DisplayDateInLocaltime renders dates in the local timezone instead of UTC.
	DisplayDateInLocaltime bool `json:"display_date_in_localtime,omitempty" yaml:"display_date_in_localtime,omitempty"`
}

// DefaultSettings returns settings with EUR as main currency and no tax free period.
func DefaultSettings() Settings {
	return Settings{
		MainCurrency:      asset.EUR,
		DateDisplayFormat: DefaultDateFormat,
	}
}

// WithTaxfreePeriod returns a copy of s with the given tax free period.
func (s Settings) WithTaxfreePeriod(d time.Duration) Settings {
	s.TaxfreeAfterPeriod = &d
	return s
}

// Validate checks that the settings can drive a calculation.
func (s Settings) Validate() error {
	if !s.MainCurrency.IsFiat() {
		return fmt.Errorf("main currency %q is not a known fiat currency", s.MainCurrency)
	}
	if s.TaxfreeAfterPeriod != nil && *s.TaxfreeAfterPeriod <= 0 {
		return fmt.Errorf("taxfree_after_period must be positive, got %s", *s.TaxfreeAfterPeriod)
	}
	return nil
}

// FormatTimestamp renders ts with the display settings.
func (s Settings) FormatTimestamp(ts event.Timestamp) string {
	layout := s.DateDisplayFormat
	if layout == "" {
		layout = DefaultDateFormat
	}
	t := ts.Time()
	if s.DisplayDateInLocaltime {
		t = t.Local()
	}
	return t.Format(layout)
}

// fileSettings mirrors Settings with the period as a duration string ("8760h").
type fileSettings struct {
	MainCurrency           string `json:"main_currency" yaml:"main_currency"`
	TaxfreeAfterPeriod     string `json:"taxfree_after_period" yaml:"taxfree_after_period"`
	DateDisplayFormat      string `json:"date_display_format" yaml:"date_display_format"`
	DisplayDateInLocaltime bool   `json:"display_date_in_localtime" yaml:"display_date_in_localtime"`
}

// LoadSettings reads settings from a YAML or JSON file. Missing fields keep
// their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML, falling back to JSON, into validated settings.
func ParseSettings(data []byte) (Settings, error) {
	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		if jsonErr := json.Unmarshal(data, &fs); jsonErr != nil {
			return Settings{}, fmt.Errorf("parse settings (tried YAML and JSON): %w", err)
		}
	}

	settings := DefaultSettings()
	if fs.MainCurrency != "" {
		settings.MainCurrency = asset.New(fs.MainCurrency)
	}
	if fs.TaxfreeAfterPeriod != "" {
		period, err := time.ParseDuration(fs.TaxfreeAfterPeriod)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid taxfree_after_period %q: %w", fs.TaxfreeAfterPeriod, err)
		}
		settings.TaxfreeAfterPeriod = &period
	}
	if fs.DateDisplayFormat != "" {
		settings.DateDisplayFormat = fs.DateDisplayFormat
	}
	settings.DisplayDateInLocaltime = fs.DisplayDateInLocaltime

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the settings attached.
func (s Settings) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SettingsFromContext retrieves the settings from context.
// Returns DefaultSettings if none are attached.
func SettingsFromContext(ctx context.Context) Settings {
	if s, ok := ctx.Value(contextKey{}).(Settings); ok {
		return s
	}
	return DefaultSettings()
}
