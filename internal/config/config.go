package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Asset struct {
		Symbol   string `yaml:"symbol"`
		Supply   string `yaml:"supply"`
		Treasury string `yaml:"treasury"`
	} `yaml:"asset"`
	Identity struct {
		HRP string `yaml:"hrp"`
	} `yaml:"identity"`
	Admin struct {
		Address string `yaml:"address"`
	} `yaml:"admin"`
	Worker struct {
		IntervalSeconds int64 `yaml:"interval_seconds"`
	} `yaml:"worker"`
	Events struct {
		Buffer int `yaml:"buffer"`
	} `yaml:"events"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.Asset.Symbol == "" || cfg.Asset.Treasury == "" {
		return nil, errors.New("asset config is incomplete")
	}
	if cfg.Admin.Address == "" {
		return nil, errors.New("admin.address is required")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("ASSET_SYMBOL"); v != "" {
		cfg.Asset.Symbol = v
	}
	if v := os.Getenv("ASSET_SUPPLY"); v != "" {
		cfg.Asset.Supply = v
	}
	if v := os.Getenv("ASSET_TREASURY"); v != "" {
		cfg.Asset.Treasury = v
	}
	if v := os.Getenv("IDENTITY_HRP"); v != "" {
		cfg.Identity.HRP = v
	}
	if v := os.Getenv("ADMIN_ADDRESS"); v != "" {
		cfg.Admin.Address = v
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
	if v := os.Getenv("EVENTS_BUFFER"); v != "" {
		cfg.Events.Buffer = atoiOr(cfg.Events.Buffer, v)
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
