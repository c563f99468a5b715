package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	// Arrange: an empty file keeps every default
	path := writeConfig(t, "")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, int64(200), cfg.Affiliate.Points.ReferralPurchase)
	assert.Equal(t, time.Hour, cfg.Jobs.ReconcileInterval)
	assert.Empty(t, cfg.Kafka.Brokers)

	policy, err := cfg.Affiliate.TierPolicy()
	require.NoError(t, err)
	assert.Equal(t, affiliate.DefaultTierThresholds(), policy.Thresholds())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://ledger@localhost/ledger
affiliate:
  tiers:
    - name: starter
      min_points: 0
      min_referrals: 0
    - name: pro
      min_points: 100
      min_referrals: 1
  partner_min_referrals: 2
  partner_min_pro_conversions: 1
kafka:
  brokers: ["k1:9092", "k2:9092"]
jobs:
  reconcile_interval: 15m
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.ReconcileInterval)

	policy, err := cfg.Affiliate.TierPolicy()
	require.NoError(t, err)
	assert.Equal(t, affiliate.Tier("PRO"), policy.Evaluate(150, 1))
	assert.True(t, policy.PartnerEligible(2, 0))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("LEDGER_SERVER_ADDR", ":7000")
	t.Setenv("LEDGER_AFFILIATE_POINTS_PRO_CONVERSION", "42")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, int64(42), cfg.Affiliate.Points.ProConversion)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"non-positive points", "affiliate:\n  points:\n    referral_signup: 0\n"},
		{"descending tiers", "affiliate:\n  tiers:\n    - {name: a, min_points: 0, min_referrals: 0}\n    - {name: b, min_points: 10, min_referrals: 2}\n    - {name: c, min_points: 5, min_referrals: 3}\n"},
		{"bad currency", "partner:\n  currency: dollars\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}
