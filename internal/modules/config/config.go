package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"ema_pricer/internal/helper"
	"ema_pricer/pkg/ema"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	alphaENV          = "PRICER_ALPHA"
	addrENV           = "PRICER_ADDR"
	logLevelENV       = "LOG_LEVEL"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Service struct {
		Name         string        `yaml:"name"`
		Addr         string        `yaml:"addr"`
		PingInterval time.Duration `yaml:"ping_interval"`
		LogLevel     string        `yaml:"log_level"`
	} `yaml:"service"`

	Pricer struct {
		// alpha или period, period -> 2/(N+1)
		Alpha  float64 `yaml:"alpha"`
		Period int     `yaml:"period"`

		// переопределения по продуктам
		Products map[string]ProductConfig `yaml:"products"`
	} `yaml:"pricer"`
}

type ProductConfig struct {
	Alpha float64  `yaml:"alpha"`
	Seed  *float64 `yaml:"seed"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	path := getenvDefault(configDirENV, "configs") + "/" + configFileName

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.Service.Name = "ema_pricer"
	cfg.Service.Addr = ":8080"
	cfg.Service.PingInterval = 20 * time.Second
	cfg.Service.LogLevel = "info"
	cfg.Pricer.Alpha = ema.DefaultAlpha
	return cfg
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		// без файла работаем на дефолтах + env
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	// пустой файл -> io.EOF, это не ошибка
	if err := yaml.NewDecoder(file).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Pricer.Alpha = floatFromEnv(alphaENV, c.Pricer.Alpha)
	c.Service.Addr = getenvDefault(addrENV, c.Service.Addr)
	c.Service.LogLevel = getenvDefault(logLevelENV, c.Service.LogLevel)

	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

// Validate нормализует продукты и проверяет alpha.
// period имеет приоритет над alpha, если задан.
func (c *Config) Validate() error {
	if c.Pricer.Period != 0 {
		a, err := ema.AlphaFromPeriod(c.Pricer.Period)
		if err != nil {
			return fmt.Errorf("pricer.period: %w", err)
		}
		c.Pricer.Alpha = a
	}
	if !validAlpha(c.Pricer.Alpha) {
		return fmt.Errorf("pricer.alpha %v: %w", c.Pricer.Alpha, ema.ErrInvalidParameter)
	}

	products := make(map[string]ProductConfig, len(c.Pricer.Products))
	for name, p := range c.Pricer.Products {
		if p.Alpha != 0 && !validAlpha(p.Alpha) {
			return fmt.Errorf("pricer.products.%s.alpha %v: %w", name, p.Alpha, ema.ErrInvalidParameter)
		}
		products[helper.NormProduct(name)] = p
	}
	c.Pricer.Products = products

	if c.Service.PingInterval <= 0 {
		c.Service.PingInterval = 20 * time.Second
	}
	return nil
}

// AlphaFor: alpha продукта или общий.
func (c *Config) AlphaFor(product string) float64 {
	if p, ok := c.Pricer.Products[product]; ok && p.Alpha != 0 {
		return p.Alpha
	}
	return c.Pricer.Alpha
}

func (c *Config) SeedFor(product string) (float64, bool) {
	if p, ok := c.Pricer.Products[product]; ok && p.Seed != nil {
		return *p.Seed, true
	}
	return 0, false
}

func validAlpha(a float64) bool { return a > 0 && a <= 1 }

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
