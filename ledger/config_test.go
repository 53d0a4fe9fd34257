package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		check   func(t *testing.T, s Settings)
	}{
		{
			name:  "empty document uses defaults",
			input: "",
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, asset.EUR, s.MainCurrency)
				assert.Zero(t, s.TaxfreeAfterPeriod)
				assert.Equal(t, DefaultDateFormat, s.DateDisplayFormat)
			},
		},
		{
			name: "yaml",
			input: `main_currency: usd
taxfree_after_period: 8760h
date_display_format: "2006-01-02"
`,
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, asset.USD, s.MainCurrency)
				assert.Equal(t, 365*24*time.Hour, *s.TaxfreeAfterPeriod)
				assert.Equal(t, "2006-01-02", s.DateDisplayFormat)
			},
		},
		{
			name:  "json",
			input: `{"main_currency": "EUR", "taxfree_after_period": "720h"}`,
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, 720*time.Hour, *s.TaxfreeAfterPeriod)
			},
		},
		{
			name:    "non fiat main currency",
			input:   "main_currency: ETH\n",
			wantErr: "not a known fiat currency",
		},
		{
			name:    "bad period",
			input:   "taxfree_after_period: a year\n",
			wantErr: "invalid taxfree_after_period",
		},
		{
			name:    "negative period",
			input:   "taxfree_after_period: -1h\n",
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSettings([]byte(tt.input))
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("main_currency: USD\n"), 0o600))

	s, err := LoadSettings(path)
	assert.NoError(t, err)
	assert.Equal(t, asset.USD, s.MainCurrency)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSettingsContext(t *testing.T) {
	t.Run("Defaults without settings", func(t *testing.T) {
		s := SettingsFromContext(context.Background())
		assert.Equal(t, DefaultSettings(), s)
	})

	t.Run("Round trip", func(t *testing.T) {
		want := DefaultSettings().WithTaxfreePeriod(time.Hour)
		ctx := want.WithContext(context.Background())
		assert.Equal(t, want, SettingsFromContext(ctx))
	})
}

func TestFormatTimestamp(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "01/08/2017 13:16:14 UTC", s.FormatTimestamp(BTCBCHForkTS))

	s.DateDisplayFormat = ""
	assert.Equal(t, "01/08/2017 13:16:14 UTC", s.FormatTimestamp(event.Timestamp(1501593374)))
}
