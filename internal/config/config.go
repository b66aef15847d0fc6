package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr" properties:"addr,default="`
	Password     string `json:"password" yaml:"password" toml:"password" properties:"password,default="`
	DB           int    `json:"db" yaml:"db" toml:"db" properties:"db,default=0"`
	VisitKey     string `json:"visitKey" yaml:"visitKey" toml:"visitKey" properties:"visitKey,default="`
	PoolSize     int    `json:"poolSize" yaml:"poolSize" toml:"poolSize" properties:"poolSize,default=0"`
	MinIdleConns int    `json:"minIdleConns" yaml:"minIdleConns" toml:"minIdleConns" properties:"minIdleConns,default=0"`
}

// Enabled reports whether a redis server is configured at all.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" properties:"level,default="`
	Format string `json:"format" yaml:"format" toml:"format" properties:"format,default="`
}

// AppConfig is the bootstrap input of the server. Only ScanPackage is
// required; Validate fills in the rest.
type AppConfig struct {
	ScanPackage      string      `json:"scanPackage" yaml:"scanPackage" toml:"scanPackage" properties:"scanPackage,default="`
	ListenAddr       string      `json:"listenAddr" yaml:"listenAddr" toml:"listenAddr" properties:"listenAddr,default="`
	AdminAddr        string      `json:"adminAddr" yaml:"adminAddr" toml:"adminAddr" properties:"adminAddr,default="`
	ContextPath      string      `json:"contextPath" yaml:"contextPath" toml:"contextPath" properties:"contextPath,default="`
	WebsocketPath    string      `json:"websocketPath" yaml:"websocketPath" toml:"websocketPath" properties:"websocketPath,default="`
	StrictWiring     bool        `json:"strictWiring" yaml:"strictWiring" toml:"strictWiring" properties:"strictWiring,default=false"`
	StatsIntervalSec int         `json:"statsIntervalSec" yaml:"statsIntervalSec" toml:"statsIntervalSec" properties:"statsIntervalSec,default=0"`
	Log              LogConfig   `json:"log" yaml:"log" toml:"log" properties:"log"`
	Redis            RedisConfig `json:"redis" yaml:"redis" toml:"redis" properties:"redis"`
}

const (
	DefaultListenAddr       = ":8080"
	DefaultStatsIntervalSec = 60
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// Validate checks required keys and applies defaults in place.
func (c *AppConfig) Validate() error {
	c.ScanPackage = strings.TrimSpace(c.ScanPackage)
	if c.ScanPackage == "" {
		return errors.New("scanPackage is a required configuration key and cannot be empty")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.StatsIntervalSec <= 0 {
		c.StatsIntervalSec = DefaultStatsIntervalSec
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	c.ContextPath = strings.TrimRight(c.ContextPath, "/")
	return nil
}

// LoadApp reads and validates an AppConfig.
func LoadApp(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load decodes the file at path into out, picking the format from the
// file extension. Unknown extensions are read as JSON.
func Load(path string, out any) error {
	if strings.EqualFold(filepath.Ext(path), ".properties") {
		p, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := p.Decode(out); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	case ".toml":
		err = toml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
