package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/id"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/logging"
)

const envPrefix = "SWAPCALL_"

type GlobalFlags struct {
	ConfigPath     string
	EnvFile        string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Timeout        string
	Retries        int
	MaxStale       string
	NoStale        bool
	NoCache        bool
	LogLevel       string
	LogJSON        bool
}

// ChainOverride replaces built-in chain settings. Empty fields keep the default.
type ChainOverride struct {
	RouteEndpoint      string
	Router             string
	Executor           string
	WrappedNative      string
	RPCURL             string
	ChainableExchanges []string
}

type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	Timeout        time.Duration
	Retries        int
	MaxStale       time.Duration
	NoStale        bool
	CacheEnabled   bool
	CachePath      string
	CacheLockPath  string
	LogLevel       string
	LogJSON        bool
	KyberClientID  string
	Chains         map[int64]ChainOverride
}

type fileChain struct {
	RouteEndpoint      string   `yaml:"route_endpoint" toml:"route_endpoint"`
	Router             string   `yaml:"router" toml:"router"`
	Executor           string   `yaml:"executor" toml:"executor"`
	WrappedNative      string   `yaml:"wrapped_native" toml:"wrapped_native"`
	RPCURL             string   `yaml:"rpc_url" toml:"rpc_url"`
	ChainableExchanges []string `yaml:"chainable_exchanges" toml:"chainable_exchanges"`
}

type fileConfig struct {
	Output   string `yaml:"output" toml:"output"`
	Timeout  string `yaml:"timeout" toml:"timeout"`
	Retries  *int   `yaml:"retries" toml:"retries"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogJSON  *bool  `yaml:"log_json" toml:"log_json"`
	Cache    struct {
		Enabled  *bool  `yaml:"enabled" toml:"enabled"`
		MaxStale string `yaml:"max_stale" toml:"max_stale"`
		Path     string `yaml:"path" toml:"path"`
		LockPath string `yaml:"lock_path" toml:"lock_path"`
	} `yaml:"cache" toml:"cache"`
	Providers struct {
		KyberSwap struct {
			ClientID    string `yaml:"client_id" toml:"client_id"`
			ClientIDEnv string `yaml:"client_id_env" toml:"client_id_env"`
		} `yaml:"kyberswap" toml:"kyberswap"`
	} `yaml:"providers" toml:"providers"`
	Chains map[string]fileChain `yaml:"chains" toml:"chains"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	if err := loadEnvFile(flags.EnvFile); err != nil {
		return Settings{}, err
	}
	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 30 * time.Second
	}
	if _, err := logging.ParseLevel(settings.LogLevel); err != nil {
		return Settings{}, fmt.Errorf("invalid log level %q", settings.LogLevel)
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       10 * time.Second,
		Retries:       2,
		MaxStale:      30 * time.Second,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
		LogLevel:      logging.DefaultLevel,
		Chains:        map[int64]ChainOverride{},
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "swapcall", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "swapcall")
	return filepath.Join(dir, "routes.db"), filepath.Join(dir, "routes.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(buf, &cfg); err != nil {
			return fmt.Errorf("parse config toml: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = cfg.LogLevel
	}
	if cfg.LogJSON != nil {
		settings.LogJSON = *cfg.LogJSON
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.MaxStale != "" {
		d, err := time.ParseDuration(cfg.Cache.MaxStale)
		if err != nil {
			return fmt.Errorf("config cache.max_stale: %w", err)
		}
		settings.MaxStale = d
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Providers.KyberSwap.ClientID != "" {
		settings.KyberClientID = cfg.Providers.KyberSwap.ClientID
	}
	if cfg.Providers.KyberSwap.ClientIDEnv != "" {
		settings.KyberClientID = os.Getenv(cfg.Providers.KyberSwap.ClientIDEnv)
	}
	for key, c := range cfg.Chains {
		chain, err := id.ParseChain(key)
		if err != nil {
			return fmt.Errorf("config chains.%s: %w", key, err)
		}
		settings.Chains[chain.EVMChainID] = ChainOverride{
			RouteEndpoint:      strings.TrimSpace(c.RouteEndpoint),
			Router:             strings.TrimSpace(c.Router),
			Executor:           strings.TrimSpace(c.Executor),
			WrappedNative:      strings.TrimSpace(c.WrappedNative),
			RPCURL:             strings.TrimSpace(c.RPCURL),
			ChainableExchanges: c.ChainableExchanges,
		}
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default .env is fine.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

func applyEnv(settings *Settings) {
	if v := getenv("OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := getenv("ENABLE_COMMANDS"); v != "" {
		settings.EnableCommands = splitList(v)
	}
	if v := getenv("TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := getenv("RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := getenv("MAX_STALE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.MaxStale = d
		}
	}
	if v := getenv("NO_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.NoStale = b
		}
	}
	if v := getenv("NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := getenv("CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := getenv("CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		settings.LogLevel = v
	}
	if v := getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.LogJSON = b
		}
	}
	if v := getenv("KYBERSWAP_CLIENT_ID"); v != "" {
		settings.KyberClientID = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = splitList(flags.Select)
	}
	if strings.TrimSpace(flags.EnableCommands) != "" {
		settings.EnableCommands = splitList(flags.EnableCommands)
	}
	settings.ResultsOnly = flags.ResultsOnly

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.MaxStale != "" {
		d, err := time.ParseDuration(flags.MaxStale)
		if err != nil {
			return fmt.Errorf("parse --max-stale: %w", err)
		}
		settings.MaxStale = d
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = flags.LogLevel
	}
	if flags.LogJSON {
		settings.LogJSON = true
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if f := strings.TrimSpace(part); f != "" {
			out = append(out, f)
		}
	}
	return out
}
