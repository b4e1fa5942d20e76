package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Worker     WorkerConfig     `yaml:"worker"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	SensorCount           int           `yaml:"sensor_count"`
	Interval              time.Duration `yaml:"interval"`
	Duration              time.Duration `yaml:"duration"`
	GenerationProbability float64       `yaml:"generation_probability"`
	TickInterval          time.Duration `yaml:"tick_interval"` // 0 means agents advance the environment
	Seed                  int64         `yaml:"seed"`          // 0 means time-seeded
}

type ThresholdsConfig struct {
	Temperature float64 `yaml:"temperature"`
	WindSpeed   float64 `yaml:"wind_speed"`
	AirQuality  float64 `yaml:"air_quality"`
	Seismic     float64 `yaml:"seismic"`
	WaterLevel  float64 `yaml:"water_level"`
}

type WorkerConfig struct {
	Count      int `yaml:"count"`
	BufferSize int `yaml:"buffer_size"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			SensorCount:           3,
			Interval:              3 * time.Second,
			Duration:              20 * time.Second,
			GenerationProbability: 0.10,
		},
		Thresholds: ThresholdsConfig{
			Temperature: 40,
			WindSpeed:   60,
			AirQuality:  200,
			Seismic:     3.0,
			WaterLevel:  0.5,
		},
		Worker: WorkerConfig{
			Count:      2,
			BufferSize: 20,
		},
		Server: ServerConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Load builds the config from defaults, then the optional YAML file at path
// (or SIM_CONFIG_FILE), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SIM_CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Simulation.SensorCount = getEnvInt("SENSOR_COUNT", c.Simulation.SensorCount)
	c.Simulation.Interval = getEnvDuration("SENSOR_INTERVAL", c.Simulation.Interval)
	c.Simulation.Duration = getEnvDuration("RUN_DURATION", c.Simulation.Duration)
	c.Simulation.GenerationProbability = getEnvFloat("GENERATION_PROBABILITY", c.Simulation.GenerationProbability)
	c.Simulation.TickInterval = getEnvDuration("ENV_TICK_INTERVAL", c.Simulation.TickInterval)
	c.Simulation.Seed = int64(getEnvInt("RANDOM_SEED", int(c.Simulation.Seed)))

	c.Worker.Count = getEnvInt("WORKER_COUNT", c.Worker.Count)
	c.Worker.BufferSize = getEnvInt("WORKER_BUFFER_SIZE", c.Worker.BufferSize)

	c.Server.Enabled = getEnvBool("API_ENABLED", c.Server.Enabled)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Dir = getEnv("LOG_DIR", c.Logging.Dir)
}

func (c *Config) validate() error {
	if c.Simulation.SensorCount < 1 {
		return fmt.Errorf("sensor count must be at least 1, got %d", c.Simulation.SensorCount)
	}
	if c.Simulation.Interval <= 0 {
		return fmt.Errorf("sensor interval must be positive")
	}
	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("run duration must be positive")
	}
	if c.Simulation.TickInterval < 0 {
		return fmt.Errorf("environment tick interval must not be negative")
	}
	if p := c.Simulation.GenerationProbability; p < 0 || p > 1 {
		return fmt.Errorf("generation probability must be within [0, 1], got %v", p)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Dir == "" {
		return fmt.Errorf("log dir is required")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
