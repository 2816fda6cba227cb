package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: storefront-test
  port: 9090
  shutdown_timeout: 3s
infra:
  mysql:
    host: mysql.internal
    port: 3307
  kafka:
    brokers: [k1:9092, k2:9092]
shop:
  shipping_fee: 80
`

func TestLoadLayersFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("TEASHOP_INFRA_MYSQL_HOST", "mysql.override")
	t.Setenv("TEASHOP_SHOP_SESSION_TTL", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "storefront-test", cfg.App.Name)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, "mysql.override", cfg.Infra.MySQL.Host)
	assert.Equal(t, 3307, cfg.Infra.MySQL.Port)
	assert.Equal(t, "teashop", cfg.Infra.MySQL.Database, "unset keys keep defaults")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, 80.0, cfg.Shop.ShippingFee)
	assert.Equal(t, 2*time.Hour, cfg.Shop.SessionTTL)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().App.Port, cfg.App.Port)
	assert.Equal(t, 500, cfg.Shop.CancelReasonLimit)
}

func TestLoadCapsCancelReasonLimit(t *testing.T) {
	t.Setenv("TEASHOP_SHOP_CANCEL_REASON_LIMIT", "800")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Shop.CancelReasonLimit)

	t.Setenv("TEASHOP_SHOP_CANCEL_REASON_LIMIT", "120")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Shop.CancelReasonLimit)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGetCurrentConfig(t *testing.T) {
	cfg, err := Init("")
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())
}
