package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WEATHERPI_DISPLAY_WIDTH.
const EnvPrefix = "WEATHERPI"

type AppConfig struct {
	Env      string `mapstructure:"env" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	Display    DisplayConfig    `mapstructure:"display"`
	Timer      TimerConfig      `mapstructure:"timer"`
	Locale     LocaleConfig     `mapstructure:"locale"`
	Server     ServerConfig     `mapstructure:"server"`
	Weather    WeatherConfig    `mapstructure:"weather"`
	CallLog    CallLogConfig    `mapstructure:"calllog"`
	Assets     AssetsConfig     `mapstructure:"assets"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot"`
}

// DisplayConfig describes the physical target. Layout is computed from Width and Height.
type DisplayConfig struct {
	Width           int           `mapstructure:"width" validate:"gt=0"`
	Height          int           `mapstructure:"height" validate:"gt=0"`
	AA              bool          `mapstructure:"aa"`
	Presenter       string        `mapstructure:"presenter" validate:"oneof=png epd none"`
	Output          string        `mapstructure:"output"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gt=0"`
}

// TimerConfig holds the periods of the fetch and reload jobs.
type TimerConfig struct {
	Update time.Duration `mapstructure:"update" validate:"gt=0"`
	Reload time.Duration `mapstructure:"reload" validate:"gt=0"`
}

// LocaleConfig controls units, labels and date formats. Formats are Go time layouts.
type LocaleConfig struct {
	ISO               string `mapstructure:"iso" validate:"required"`
	Metric            bool   `mapstructure:"metric"`
	FeelsLike         string `mapstructure:"feels_like"`
	Moon              string `mapstructure:"moon"`
	DateFormat        string `mapstructure:"date_format" validate:"required"`
	TimeFormat        string `mapstructure:"time_format" validate:"required"`
	ForecastDayFormat string `mapstructure:"forecast_day_format" validate:"required"`
	SunFormat         string `mapstructure:"sun_format" validate:"required"`
}

// ServerConfig enables server mode: the frame is exported as JPEG and served over HTTP.
type ServerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Port      int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	Sleep     time.Duration `mapstructure:"sleep" validate:"gte=0"`
	FramePath string        `mapstructure:"frame_path" validate:"required"`
}

type WeatherConfig struct {
	URL         string        `mapstructure:"url" validate:"required,url"`
	Latitude    float64       `mapstructure:"latitude" validate:"latitude"`
	Longitude   float64       `mapstructure:"longitude" validate:"longitude"`
	Timezone    string        `mapstructure:"timezone"`
	Variant     string        `mapstructure:"variant" validate:"oneof=forecast extended"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
}

type CallLogConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address" validate:"required_if=Enabled true"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Backlog  int           `mapstructure:"backlog" validate:"gte=1"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type AssetsConfig struct {
	Icons       string `mapstructure:"icons"`
	Fonts       string `mapstructure:"fonts"`
	FontRegular string `mapstructure:"font_regular"`
	FontBold    string `mapstructure:"font_bold"`
}

type SnapshotConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ScreenshotConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "desktop")
	v.SetDefault("log_level", "info")

	v.SetDefault("display.width", 800)
	v.SetDefault("display.height", 480)
	v.SetDefault("display.aa", true)
	v.SetDefault("display.presenter", "png")
	v.SetDefault("display.output", "display.png")
	v.SetDefault("display.refresh_interval", "1s")

	v.SetDefault("timer.update", "10m")
	v.SetDefault("timer.reload", "1m")

	v.SetDefault("locale.iso", "en-US")
	v.SetDefault("locale.metric", true)
	v.SetDefault("locale.feels_like", "feels like")
	v.SetDefault("locale.moon", "Moon")
	v.SetDefault("locale.date_format", "Monday, 2 January")
	v.SetDefault("locale.time_format", "15:04")
	v.SetDefault("locale.forecast_day_format", "Mon")
	v.SetDefault("locale.sun_format", "15:04")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.sleep", "30s")
	v.SetDefault("server.frame_path", "screenshot.jpg")

	v.SetDefault("weather.url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.latitude", 52.52)
	v.SetDefault("weather.longitude", 13.41)
	v.SetDefault("weather.timezone", "auto")
	v.SetDefault("weather.variant", "forecast")
	v.SetDefault("weather.http_timeout", "10s")

	v.SetDefault("calllog.enabled", false)
	v.SetDefault("calllog.address", "192.168.178.1")
	v.SetDefault("calllog.username", "")
	v.SetDefault("calllog.password", "")
	v.SetDefault("calllog.backlog", 5)
	v.SetDefault("calllog.interval", "5m")

	v.SetDefault("assets.icons", "assets/icons")
	v.SetDefault("assets.fonts", "assets/fonts")
	v.SetDefault("assets.font_regular", "regular.ttf")
	v.SetDefault("assets.font_bold", "bold.ttf")

	v.SetDefault("snapshot.path", "latest_weather.json")
	v.SetDefault("screenshot.path", "screenshot.png")
}

// Load reads .env, an optional config file and WEATHERPI_* overrides, in that
// order of increasing precedence, and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Printf("INFO: No config file found, using defaults and environment")
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves weather.timezone. "auto" and "" mean the host's zone.
func (c *AppConfig) Location() (*time.Location, error) {
	switch c.Weather.Timezone {
	case "", "auto":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Weather.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid weather.timezone %q: %w", c.Weather.Timezone, err)
	}
	return loc, nil
}

// ServerMode reports whether the frame export and HTTP endpoint are active.
func (c *AppConfig) ServerMode() bool {
	return c.Server.Enabled
}
