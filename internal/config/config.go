package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/scheduler"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SHELFSCAN_"

// Config is the shelfscan runtime configuration.
type Config struct {
	Camera CameraConfig `yaml:"camera" envPrefix:"CAMERA_"`
	Scan   ScanConfig   `yaml:"scan" envPrefix:"SCAN_"`
	Redis  RedisConfig  `yaml:"redis" envPrefix:"REDIS_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
	HTTP   HTTPConfig   `yaml:"http" envPrefix:"HTTP_"`
}

// CameraConfig selects the frame source and the capture request.
type CameraConfig struct {
	// Source is "frames" (image files) or "webcam" (requires the gocv build tag).
	Source     string `yaml:"source" env:"SOURCE" validate:"oneof=frames webcam"`
	Device     string `yaml:"device" env:"DEVICE" validate:"required"`
	Frames     string `yaml:"frames" env:"FRAMES" validate:"required_if=Source frames"`
	FacingMode string `yaml:"facing_mode" env:"FACING_MODE" validate:"omitempty,oneof=environment user"`
	Width      int    `yaml:"width" env:"WIDTH" validate:"gte=0"`
	Height     int    `yaml:"height" env:"HEIGHT" validate:"gte=0"`
}

// Constraints converts the section into a capture request.
func (c CameraConfig) Constraints() domain.Constraints {
	constraints := domain.DefaultConstraints()
	if c.FacingMode != "" {
		constraints.FacingMode = c.FacingMode
	}
	if c.Width > 0 {
		constraints.Width = c.Width
	}
	if c.Height > 0 {
		constraints.Height = c.Height
	}
	return constraints
}

// ScanConfig tunes the scan loop.
type ScanConfig struct {
	Interval       time.Duration `yaml:"interval" env:"INTERVAL" validate:"gt=0"`
	StrictChecksum bool          `yaml:"strict_checksum" env:"STRICT_CHECKSUM"`
	Symbologies    []string      `yaml:"symbologies" env:"SYMBOLOGIES" validate:"dive,oneof=EAN_13 EAN_8 UPC_A UPC_E"`
	ROIWidth       float64       `yaml:"roi_width" env:"ROI_WIDTH" validate:"gt=0,lte=1"`
	ROIHeight      float64       `yaml:"roi_height" env:"ROI_HEIGHT" validate:"gt=0,lte=1"`
}

// Formats returns the configured symbologies, or nil for the retail default.
func (s ScanConfig) Formats() []domain.Symbology {
	if len(s.Symbologies) == 0 {
		return nil
	}
	out := make([]domain.Symbology, len(s.Symbologies))
	for i, name := range s.Symbologies {
		out[i] = domain.Symbology(name)
	}
	return out
}

// RedisConfig enables the distributed device lock and the detection stream.
// An empty Addr keeps both local.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB" validate:"gte=0"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"LOCK_TTL" validate:"gte=0"`
	Publish  bool          `yaml:"publish" env:"PUBLISH"`
	MaxLen   int64         `yaml:"max_len" env:"MAX_LEN" validate:"gte=0"`
}

// Enabled reports whether a redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS" validate:"gte=0"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// HTTPConfig configures the control surface of `shelfscan serve`.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Source: "frames",
			Device: "0",
			Frames: "frames",
		},
		Scan: ScanConfig{
			Interval:  scheduler.DefaultFrameInterval,
			ROIWidth:  domain.DefaultROIWidthFraction,
			ROIHeight: domain.DefaultROIHeightFraction,
		},
		Redis: RedisConfig{
			Prefix:  "shelfscan:",
			LockTTL: 30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration in layers: defaults, the YAML file at path
// (skipped when empty), a .env file in the working directory, then
// SHELFSCAN_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
