package gelf

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig,
// e.g. GELF_HOST or GELF_PACKETS_PER_SECOND.
const EnvPrefix = "GELF_"

// Config is the file and environment configuration of a complete logging
// stack: destination, formatting, transport and slog handler.
type Config struct {
	Destination `koanf:",squash"`

	Facility                  string `koanf:"facility"`
	IncludeAmbientProperties  bool   `koanf:"include_ambient_properties"`
	SerializeObjectProperties bool   `koanf:"serialize_object_properties"`
	TimeFormat                string `koanf:"time_format"`

	Compression string `koanf:"compression" validate:"oneof=gzip zlib none"`
	Format      string `koanf:"format" validate:"oneof=json msgpack"`

	// Pooled sends through a Client instead of a socket per message.
	Pooled           bool          `koanf:"pooled"`
	Concurrency      int           `koanf:"concurrency" validate:"min=1"`
	PacketsPerSecond float64       `koanf:"packets_per_second" validate:"min=0"`
	DialTimeout      time.Duration `koanf:"dial_timeout" validate:"min=0"`

	Level      string `koanf:"level" validate:"required"`
	LoggerName string `koanf:"logger_name"`
	AddSource  bool   `koanf:"add_source"`
	Verbose    bool   `koanf:"verbose"`
}

// LoadConfig loads the configuration with priority:
//  1. Environment variables prefixed with GELF_ (highest priority)
//  2. The YAML file at path, if path is not empty
//  3. Default values (lowest priority)
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	// load default configuration first
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if len(path) > 0 {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// GELF_DIAL_TIMEOUT => dial_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"port":               DefaultPort,
		"time_format":        defaultTimeFormat,
		"compression":        CompressGzip.String(),
		"format":             FormatJSON.String(),
		"pooled":             false,
		"concurrency":        defaultConcurrency,
		"packets_per_second": 0,
		"dial_timeout":       defaultDialTimeout.String(),
		"level":              "info",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// Validate returns ErrInvalidArgument describing the first invalid field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: invalid configuration: %v", ErrInvalidArgument, err)
	}
	if _, err := c.slogLevel(); err != nil {
		return fmt.Errorf("%w: invalid configuration: level %q: %v", ErrInvalidArgument, c.Level, err)
	}
	return nil
}

func (c *Config) slogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Level))
	return l, err
}

// TargetOptions returns the TargetOptions described by the configuration.
func (c *Config) TargetOptions() (*TargetOptions, error) {
	comp, err := ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}

	opts := DefaultTargetOptions()
	opts.Formatting = &FormattingOptions{
		Facility:                        c.Facility,
		IncludeAmbientContextProperties: c.IncludeAmbientProperties,
		SerializeObjectProperties:       c.SerializeObjectProperties,
		TimeFormat:                      c.TimeFormat,
	}
	opts.Format = format
	opts.Transport.Compression = comp
	opts.Transport.Verbose = c.Verbose
	opts.Verbose = c.Verbose
	return opts, nil
}

// NewTarget builds the Target described by the configuration. When Pooled is
// set, the Client is dialed before NewTarget returns.
func (c *Config) NewTarget() (*Target, error) {
	opts, err := c.TargetOptions()
	if err != nil {
		return nil, err
	}

	var sink DatagramSink
	if c.Pooled {
		client, err := NewClient(c.Destination, &ClientOptions{
			DialTimeout:      c.DialTimeout,
			Concurrency:      c.Concurrency,
			PacketsPerSecond: c.PacketsPerSecond,
			Verbose:          c.Verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gelf.NewClient: %w", err)
		}
		sink = client
	} else {
		sink = &UDPSink{DialTimeout: c.DialTimeout}
	}

	t, err := NewTarget(c.Destination, sink, opts)
	if err != nil {
		if cl, ok := sink.(*Client); ok {
			cl.Close()
		}
		return nil, err
	}
	return t, nil
}

// NewHandler builds the Target described by the configuration and returns a
// slog.Handler writing to it.
func (c *Config) NewHandler() (*Handler, error) {
	level, err := c.slogLevel()
	if err != nil {
		return nil, fmt.Errorf("%w: level %q: %v", ErrInvalidArgument, c.Level, err)
	}

	t, err := c.NewTarget()
	if err != nil {
		return nil, err
	}

	return NewHandlerCustom(t, &HandlerOptions{
		Level:      level,
		LoggerName: c.LoggerName,
		AddSource:  c.AddSource,
		Verbose:    c.Verbose,
	}), nil
}

