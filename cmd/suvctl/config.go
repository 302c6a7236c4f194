package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/spf13/viper"
)

const envPrefix = "SUV"

// cliConfig is the resolved configuration of one suvctl invocation:
// flags override SUV_* environment variables, which override the config file.
type cliConfig struct {
	BaseURL       string
	Timeout       time.Duration
	Output        string
	Verbose       bool
	Timezone      string
	CookieBackend string
	CookieFile    string
	RedisAddr     string
	RedisPrefix   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://127.0.0.1:3000")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("output", "table")
	v.SetDefault("verbose", false)
	v.SetDefault("timezone", "Local")
	v.SetDefault("cookie_backend", string(suvclient.CookieBackendFile))
	v.SetDefault("cookie_file", defaultCookieFile())
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_prefix", "suvctl")
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "suvctl")
	}
	return ".suvctl"
}

func defaultCookieFile() string {
	return filepath.Join(defaultConfigDir(), "cookies.yaml")
}

// readConfigFile loads file, or config.yaml from the default directory when
// file is empty. A missing default file is not an error.
func readConfigFile(v *viper.Viper, file string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (cliConfig, error) {
	cfg := cliConfig{
		BaseURL:       strings.TrimRight(v.GetString("base_url"), "/"),
		Timeout:       v.GetDuration("timeout"),
		Output:        strings.ToLower(v.GetString("output")),
		Verbose:       v.GetBool("verbose"),
		Timezone:      v.GetString("timezone"),
		CookieBackend: strings.ToLower(v.GetString("cookie_backend")),
		CookieFile:    v.GetString("cookie_file"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPrefix:   v.GetString("redis_prefix"),
	}

	switch cfg.Output {
	case outputTable, outputJSON, outputYAML:
	default:
		return cliConfig{}, fmt.Errorf("unknown output format %q (want table, json or yaml)", cfg.Output)
	}

	switch suvclient.CookieBackend(cfg.CookieBackend) {
	case suvclient.CookieBackendMemory, suvclient.CookieBackendFile:
	case suvclient.CookieBackendRedis:
		if cfg.RedisAddr == "" {
			return cliConfig{}, errors.New("cookie_backend redis needs redis_addr")
		}
	default:
		return cliConfig{}, fmt.Errorf("unknown cookie backend %q", cfg.CookieBackend)
	}

	if _, err := cfg.location(); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

func (c cliConfig) location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c cliConfig) clientConfig() suvclient.Config {
	cfg := suvclient.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.HTTP.Timeout = c.Timeout
	cfg.HTTP.UserAgent = "suvctl/1"
	cfg.CookieStore.Backend = suvclient.CookieBackend(c.CookieBackend)
	cfg.CookieStore.FilePath = c.CookieFile
	cfg.CookieStore.RedisPrefix = c.RedisPrefix
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
