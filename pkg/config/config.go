package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	yaml "gopkg.in/yaml.v3"

	"github.com/birdayz/b64img/pkg/export"
	"github.com/birdayz/b64img/pkg/imageprobe"
	"github.com/birdayz/b64img/pkg/imgcodec"
)

const (
	DefaultEncodeDelay  = 500 * time.Millisecond
	DefaultProbeTimeout = 10 * time.Second
)

type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type Config struct {
	Log                 Log            `yaml:"log,omitempty"`
	FallbackMediaType   string         `yaml:"fallback-media-type,omitempty"`
	OutputDir           string         `yaml:"output-dir,omitempty"`
	EncodedNameTemplate string         `yaml:"encoded-name-template,omitempty"`
	DecodedNameTemplate string         `yaml:"decoded-name-template,omitempty"`
	EncodeDelay         *time.Duration `yaml:"encode-delay,omitempty"`
	ProbeTimeout        *time.Duration `yaml:"probe-timeout,omitempty"`
	MaxPixels           *int64         `yaml:"max-pixels,omitempty"`
	// configPath is the file path used for reading and writing this config.
	configPath string `yaml:"-"`
}

// Path is the file this config was read from and will be written to.
func (c *Config) Path() string {
	return c.configPath
}

// Fallback returns the media type assumed for bare Base64 payloads.
func (c *Config) Fallback() imgcodec.MediaType {
	mt := imgcodec.ParseMediaType(c.FallbackMediaType)
	if mt.Recognized() {
		return mt
	}
	return imgcodec.DefaultMediaType
}

func (c *Config) OutputDirOrDefault() string {
	if c.OutputDir == "" {
		return "."
	}
	return c.OutputDir
}

func (c *Config) EncodedTemplateOrDefault() string {
	if c.EncodedNameTemplate == "" {
		return export.DefaultEncodedNameTemplate
	}
	return c.EncodedNameTemplate
}

func (c *Config) DecodedTemplateOrDefault() string {
	if c.DecodedNameTemplate == "" {
		return export.DefaultDecodedNameTemplate
	}
	return c.DecodedNameTemplate
}

func (c *Config) EncodeDelayOrDefault() time.Duration {
	if c.EncodeDelay == nil {
		return DefaultEncodeDelay
	}
	return *c.EncodeDelay
}

// ProbeTimeoutOrDefault is how long the CLI lets the image probe run. Zero
// means no limit.
func (c *Config) ProbeTimeoutOrDefault() time.Duration {
	if c.ProbeTimeout == nil {
		return DefaultProbeTimeout
	}
	return *c.ProbeTimeout
}

// MaxPixelsOrDefault caps width*height of decoded raster images. Zero means
// no limit.
func (c *Config) MaxPixelsOrDefault() int64 {
	if c.MaxPixels == nil {
		return imageprobe.DefaultMaxPixels
	}
	return *c.MaxPixels
}

var setters = map[string]func(c *Config, v string) error{
	"log.level": func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.Log.Level = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("must be one of: debug, info, warn, error")
	},
	"log.format": func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "text", "json":
			c.Log.Format = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("must be one of: text, json")
	},
	"fallback-media-type": func(c *Config, v string) error {
		mt := imgcodec.ParseMediaType(v)
		if !mt.Recognized() {
			return fmt.Errorf("%q is not a recognized image type", v)
		}
		c.FallbackMediaType = mt.String()
		return nil
	},
	"output-dir": func(c *Config, v string) error {
		c.OutputDir = v
		return nil
	},
	"encoded-name-template": func(c *Config, v string) error {
		if _, err := export.New(".", v, ""); err != nil {
			return err
		}
		c.EncodedNameTemplate = v
		return nil
	},
	"decoded-name-template": func(c *Config, v string) error {
		if _, err := export.New(".", "", v); err != nil {
			return err
		}
		c.DecodedNameTemplate = v
		return nil
	},
	"encode-delay": func(c *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		c.EncodeDelay = &d
		return nil
	},
	"max-pixels": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
		c.MaxPixels = &n
		return nil
	},
	"probe-timeout": func(c *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		c.ProbeTimeout = &d
		return nil
	},
}

func parseDuration(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates and assigns value to key. It does not write the file.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

func (c *Config) Write() error {
	configPath := c.configPath
	if configPath == "" {
		var err error
		configPath, err = getDefaultConfigPath()
		if err != nil {
			return err
		}
	}
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, "config.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()

	encoder := yaml.NewEncoder(tmpFile)
	if err := encoder.Encode(c); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp config file: %w", err)
	}
	c.configPath = configPath
	return nil
}

func ReadConfig(cfgPath string) (c Config, err error) {
	resolvedPath, err := resolveConfigPath(cfgPath)
	if err != nil {
		return Config{}, err
	}

	file, err := os.OpenFile(resolvedPath, os.O_RDONLY, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{configPath: resolvedPath}, nil
		}
		return Config{}, fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	err = decoder.Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.configPath = resolvedPath
	return c, nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func resolveConfigPath(cfgPath string) (string, error) {
	if cfgPath == "" {
		return getDefaultConfigPath()
	}
	expanded, err := homedir.Expand(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path: %w", err)
	}
	if !fileExists(expanded) {
		return "", fmt.Errorf("config file %q does not exist", cfgPath)
	}
	return expanded, nil
}

func getDefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	return filepath.Join(home, ".b64img", "config"), nil
}
