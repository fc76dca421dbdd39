// Package config loads the application configuration from flags, environment
// variables (PDINCR_*) and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/pdincr/internal/behavior"
)

const envPrefix = "PDINCR"

// Source kinds.
const (
	SourceJoystick = "joystick"
	SourceEvdev    = "evdev"
	SourceReplay   = "replay"
)

type ServerConfig struct {
	Addr   string
	Minify bool
}

type LogConfig struct {
	Level  string
	Format string
}

type SourceConfig struct {
	Kind     string
	Device   string
	File     string
	Realtime bool
	Speed    float64
}

type ScrollConfig struct {
	VerticalThreshold   int
	HorizontalThreshold int
	Shared              bool
}

type StatsviewConfig struct {
	Enabled bool
	Addr    string
}

// Behavior is one named behavior instance.
type Behavior struct {
	Name string
	behavior.Config
}

// Config is the fully parsed, validated configuration. It is not modified
// after Load returns.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Source    SourceConfig
	Scroll    ScrollConfig
	Behaviors []Behavior
	Active    string
	Statsview StatsviewConfig
	Tray      bool
	// Monitor, when set, runs the process as a websocket event monitor
	// against this URL instead of as a transform server.
	Monitor string
}

type rawBehavior struct {
	Name        string `mapstructure:"name"`
	Mode        string `mapstructure:"mode"`
	Flavor      string `mapstructure:"flavor"`
	ScaleMode   string `mapstructure:"scale_mode"`
	ScaleFactor *int   `mapstructure:"scale_factor"`
	Smoothing   bool   `mapstructure:"smoothing"`
}

type rawConfig struct {
	Server struct {
		Addr   string `mapstructure:"addr"`
		Minify bool   `mapstructure:"minify"`
	} `mapstructure:"server"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Source struct {
		Kind     string  `mapstructure:"kind"`
		Device   string  `mapstructure:"device"`
		File     string  `mapstructure:"file"`
		Realtime bool    `mapstructure:"realtime"`
		Speed    float64 `mapstructure:"speed"`
	} `mapstructure:"source"`
	Scroll struct {
		VerticalThreshold   int  `mapstructure:"vertical_threshold"`
		HorizontalThreshold int  `mapstructure:"horizontal_threshold"`
		Shared              bool `mapstructure:"shared"`
	} `mapstructure:"scroll"`
	Behaviors []rawBehavior `mapstructure:"behaviors"`
	Active    string        `mapstructure:"active"`
	Statsview struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"statsview"`
	Tray    bool   `mapstructure:"tray"`
	Monitor string `mapstructure:"monitor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.minify", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("source.kind", SourceJoystick)
	v.SetDefault("source.speed", 12.0)
	v.SetDefault("scroll.vertical_threshold", behavior.DefaultVerticalThreshold)
	v.SetDefault("scroll.horizontal_threshold", behavior.DefaultHorizontalThreshold)
	v.SetDefault("scroll.shared", false)
	v.SetDefault("behaviors", []map[string]any{
		{"name": "pointer", "mode": "move", "flavor": "default", "scale_mode": "multiplier", "scale_factor": 1},
		{"name": "scroll", "mode": "scroll", "flavor": "default", "scale_mode": "multiplier", "scale_factor": 1},
	})
	v.SetDefault("statsview.enabled", false)
	v.SetDefault("statsview.addr", "localhost:18066")
	v.SetDefault("tray", true)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (yaml, toml or json)")
	fs.String("addr", ":8080", "HTTP and websocket listen address")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("source", SourceJoystick, "sample source: joystick, evdev or replay")
	fs.String("device", "", "evdev device path (default: auto-detect)")
	fs.String("replay", "", "JSONL sample file for the replay source")
	fs.Bool("realtime", false, "pace replayed samples by their dt")
	fs.String("active", "", "initially active behavior name")
	fs.Bool("shared-scroll", false, "share one scroll accumulator across behaviors")
	fs.Bool("statsview", false, "serve the runtime stats dashboard")
	fs.Bool("tray", true, "show the system tray icon (Windows)")
	fs.String("monitor", "", "print events from a running instance, e.g. ws://localhost:8080/ws")
	return fs
}

var flagKeys = map[string]string{
	"addr":          "server.addr",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"source":        "source.kind",
	"device":        "source.device",
	"replay":        "source.file",
	"realtime":      "source.realtime",
	"active":        "active",
	"shared-scroll": "scroll.shared",
	"statsview":     "statsview.enabled",
	"tray":          "tray",
	"monitor":       "monitor",
}

// Load parses args (without the program name) and returns the configuration.
// It returns pflag.ErrHelp when -h or --help was requested.
func Load(name string, args []string) (*Config, error) {
	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return raw.build()
}

func (raw *rawConfig) build() (*Config, error) {
	cfg := &Config{
		Server:    ServerConfig{Addr: raw.Server.Addr, Minify: raw.Server.Minify},
		Log:       LogConfig{Level: raw.Log.Level, Format: raw.Log.Format},
		Scroll:    ScrollConfig(raw.Scroll),
		Active:    raw.Active,
		Statsview: StatsviewConfig(raw.Statsview),
		Tray:      raw.Tray,
		Monitor:   raw.Monitor,
		Source: SourceConfig{
			Kind:     strings.ToLower(strings.TrimSpace(raw.Source.Kind)),
			Device:   raw.Source.Device,
			File:     raw.Source.File,
			Realtime: raw.Source.Realtime,
			Speed:    raw.Source.Speed,
		},
	}

	var errs []error
	names := make(map[string]bool)
	for i, rb := range raw.Behaviors {
		b, err := rb.parse()
		if err != nil {
			errs = append(errs, fmt.Errorf("behaviors[%d]: %w", i, err))
			continue
		}
		if names[b.Name] {
			errs = append(errs, fmt.Errorf("behaviors[%d]: duplicate name %q", i, b.Name))
			continue
		}
		names[b.Name] = true
		cfg.Behaviors = append(cfg.Behaviors, b)
	}

	if len(raw.Behaviors) == 0 {
		errs = append(errs, errors.New("no behaviors configured"))
	}
	if cfg.Active != "" && len(errs) == 0 && !names[cfg.Active] {
		errs = append(errs, fmt.Errorf("active behavior %q is not configured", cfg.Active))
	}
	for key, t := range map[string]int{
		"scroll.vertical_threshold":   cfg.Scroll.VerticalThreshold,
		"scroll.horizontal_threshold": cfg.Scroll.HorizontalThreshold,
	} {
		if t <= 0 || t > behavior.MaxThreshold {
			errs = append(errs, fmt.Errorf("%s: %w: %d (max %d)", key, behavior.ErrInvalidThreshold, t, behavior.MaxThreshold))
		}
	}
	if cfg.Monitor == "" {
		switch cfg.Source.Kind {
		case SourceJoystick, SourceEvdev:
		case SourceReplay:
			if cfg.Source.File == "" {
				errs = append(errs, errors.New("replay source needs a file (--replay or source.file)"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown source kind %q", cfg.Source.Kind))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (rb rawBehavior) parse() (Behavior, error) {
	name := strings.TrimSpace(rb.Name)
	if name == "" {
		return Behavior{}, errors.New("behavior name is empty")
	}
	mode, err := behavior.ParseMode(rb.Mode)
	if err != nil {
		return Behavior{}, fmt.Errorf("%s: %w", name, err)
	}
	flavor, err := behavior.ParseFlavor(rb.Flavor)
	if err != nil {
		return Behavior{}, fmt.Errorf("%s: %w", name, err)
	}
	scaleMode, err := behavior.ParseScaleMode(rb.ScaleMode)
	if err != nil {
		return Behavior{}, fmt.Errorf("%s: %w", name, err)
	}
	factor := 1
	if rb.ScaleFactor != nil {
		factor = *rb.ScaleFactor
	}
	b := Behavior{
		Name: name,
		Config: behavior.Config{
			Mode:        mode,
			Flavor:      flavor,
			ScaleMode:   scaleMode,
			ScaleFactor: factor,
			Smoothing:   rb.Smoothing,
		},
	}
	if err := b.Validate(); err != nil {
		return Behavior{}, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
