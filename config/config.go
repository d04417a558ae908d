// Package config loads host settings and per-extension options.
//
// Sources are layered, later ones winning:
//
//  1. Built-in defaults
//  2. A YAML or TOML file, chosen by extension
//  3. Environment variables prefixed with SCRIPTEXT_
//
// Environment keys are lower-cased after the prefix; a double underscore
// separates nesting levels, so SCRIPTEXT_EXTENSIONS__PRINTER__TARGET sets
// extensions.printer.target.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/loader"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "SCRIPTEXT_"

const extensionsKey = "extensions"

// Config holds host settings. Extension options stay in the underlying
// tree and are decoded on demand by ExtensionOptions.
type Config struct {
	k         *koanf.Koanf
	LogLevel  string   `koanf:"log_level"`
	LogFormat string   `koanf:"log_format"`
	Conflicts string   `koanf:"conflicts"`
	Builtins  []string `koanf:"builtins"`
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":  "info",
		"log_format": "console",
		"conflicts":  loader.LastWins.String(),
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := load("", nil)
	if err != nil {
		// defaults are static; a failure here is a programming error
		panic(err)
	}
	return cfg
}

// Load reads the file at path, if path is not empty, and applies environment
// overrides.
func Load(path string) (*Config, error) {
	return load(path, env.Provider(EnvPrefix, ".", envKey))
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func load(path string, envProvider koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load defaults")
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err,
				fmt.Sprintf("load config from %s", path))
		}
	}

	if envProvider != nil {
		if err := k.Load(envProvider, nil); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load environment")
		}
	}

	cfg := &Config{k: k}
	if err := unmarshal(k, "", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path)))
	}
}

func unmarshal(k *koanf.Koanf, path string, out any) error {
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           out,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf(path, out, conf); err != nil {
		what := "decode config"
		if path != "" {
			what = "decode " + path
		}
		return errors.Wrap(errors.PhaseConfig, errors.KindTypeMismatch, err, what)
	}
	return nil
}

// ConflictPolicy parses the conflicts setting.
func (c *Config) ConflictPolicy() (loader.ConflictPolicy, error) {
	return loader.ParseConflictPolicy(c.Conflicts)
}

// BuilderOptions returns the loader options the settings imply.
func (c *Config) BuilderOptions() ([]loader.Option, error) {
	policy, err := c.ConflictPolicy()
	if err != nil {
		return nil, err
	}
	opts := []loader.Option{loader.WithConflictPolicy(policy)}
	if len(c.Builtins) > 0 {
		opts = append(opts, loader.WithBuiltins(c.Builtins...))
	}
	return opts, nil
}

// HasExtension reports whether options are configured for name.
func (c *Config) HasExtension(name string) bool {
	return c.k.Exists(extensionsKey + "." + name)
}

// Extensions returns the names with configured options.
func (c *Config) Extensions() []string {
	return c.k.MapKeys(extensionsKey)
}

// ExtensionOptions decodes the options configured for name into out, which
// must be a pointer. Fields without configuration keep their values, so out
// can be pre-filled with defaults.
func (c *Config) ExtensionOptions(name string, out any) error {
	if !c.HasExtension(name) {
		return nil
	}
	return unmarshal(c.k, extensionsKey+"."+name, out)
}
