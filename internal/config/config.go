package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env       string
		Timezone  string
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Driver        string
		Dir           string
		PurchasesFile string `mapstructure:"purchases_file"`
		UsageFile     string `mapstructure:"usage_file"`
		OnReadError   string `mapstructure:"on_read_error"`
		DropOrphans   bool   `mapstructure:"drop_orphans"`
	} `mapstructure:"storage"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Enabled     bool
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		TimeoutSec  int   `mapstructure:"timeout_sec"`
	} `mapstructure:"telegram"`
}

const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
)

// Load читает YAML (если path не пустой), затем .env и переменные APP_*.
// APP_STORAGE_DIR переопределяет storage.dir и т.д.
func Load(path string) (Config, error) {
	// .env необязателен
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", DriverCSV)
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.purchases_file", "construction_materials.csv")
	v.SetDefault("storage.usage_file", "material_usage.csv")
	v.SetDefault("storage.on_read_error", "lenient")
	v.SetDefault("storage.drop_orphans", false)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.timeout_sec", 30)
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverCSV:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for csv driver")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Storage.OnReadError {
	case "lenient", "strict":
	default:
		return fmt.Errorf("unknown storage.on_read_error %q", c.Storage.OnReadError)
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return errors.New("telegram.token is required when telegram.enabled")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	return nil
}

// Location часовой пояс для "сегодня" в именах выгрузок.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
