package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	API struct {
		BaseURL               string `mapstructure:"base_url"`
		TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
		RefreshOnUnauthorized bool   `mapstructure:"refresh_on_unauthorized"`
		UserAgent             string `mapstructure:"user_agent"`
	} `mapstructure:"api"`

	Storage struct {
		Driver     string `mapstructure:"driver"` // file, redis or memory
		Path       string `mapstructure:"path"`
		Passphrase string `mapstructure:"passphrase"`
		Redis      struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			Prefix   string `mapstructure:"prefix"`
		} `mapstructure:"redis"`
	} `mapstructure:"storage"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	Export struct {
		Dir string `mapstructure:"dir"`
		S3  struct {
			Bucket    string `mapstructure:"bucket"`
			Region    string `mapstructure:"region"`
			Endpoint  string `mapstructure:"endpoint"`
			AccessKey string `mapstructure:"access_key"`
			SecretKey string `mapstructure:"secret_key"`
			Prefix    string `mapstructure:"prefix"`
		} `mapstructure:"s3"`
	} `mapstructure:"export"`

	DevServer struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		JWTSecret          string   `mapstructure:"jwt_secret"`
		AccessMinutes      int      `mapstructure:"access_minutes"`
		RefreshHours       int      `mapstructure:"refresh_hours"`
	} `mapstructure:"devserver"`
}

// Timeout returns the fixed client-wide request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Load reads configs/config.yaml (optional), .env (optional) and the
// environment. BANAS_* variables always win over the file.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configPath())

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("api.base_url", "https://banas-api-edt9.onrender.com/api")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("api.refresh_on_unauthorized", true)
	v.SetDefault("api.user_agent", "banas-client/1.0")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.prefix", "banas:")
	v.SetDefault("log.level", "info")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.s3.region", "auto")
	v.SetDefault("export.s3.prefix", "statements/")
	v.SetDefault("devserver.port", 8000)
	v.SetDefault("devserver.cors_allowed_origins", []string{"*"})
	v.SetDefault("devserver.jwt_secret", "banas-dev-secret")
	v.SetDefault("devserver.access_minutes", 60)
	v.SetDefault("devserver.refresh_hours", 24*7)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		logrus.WithField("component", "config").Debug("No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logrus.WithField("component", "config").Fatalf("config unmarshal error: %v", err)
	}

	applyEnv(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if url := os.Getenv("BANAS_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if timeout := os.Getenv("BANAS_API_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil && n > 0 {
			cfg.API.TimeoutSeconds = n
		}
	}
	if refresh := os.Getenv("BANAS_API_REFRESH"); refresh != "" {
		if b, err := strconv.ParseBool(refresh); err == nil {
			cfg.API.RefreshOnUnauthorized = b
		}
	}
	if driver := os.Getenv("BANAS_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("BANAS_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if pass := os.Getenv("BANAS_STORAGE_PASSPHRASE"); pass != "" {
		cfg.Storage.Passphrase = pass
	}
	if addr := os.Getenv("BANAS_REDIS_ADDR"); addr != "" {
		cfg.Storage.Redis.Addr = addr
	}
	if pass := os.Getenv("BANAS_REDIS_PASSWORD"); pass != "" {
		cfg.Storage.Redis.Password = pass
	}
	if level := os.Getenv("BANAS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if addr := os.Getenv("BANAS_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
	}
	if bucket := os.Getenv("BANAS_EXPORT_BUCKET"); bucket != "" {
		cfg.Export.S3.Bucket = bucket
	}
	if endpoint := os.Getenv("BANAS_EXPORT_ENDPOINT"); endpoint != "" {
		cfg.Export.S3.Endpoint = endpoint
	}
	if key := os.Getenv("BANAS_EXPORT_ACCESS_KEY"); key != "" {
		cfg.Export.S3.AccessKey = key
	}
	if secret := os.Getenv("BANAS_EXPORT_SECRET_KEY"); secret != "" {
		cfg.Export.S3.SecretKey = secret
	}
	if secret := os.Getenv("BANAS_DEV_JWT_SECRET"); secret != "" {
		cfg.DevServer.JWTSecret = secret
	}
	if port := os.Getenv("BANAS_DEV_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.DevServer.Port = n
		}
	}
}

func configPath() string {
	if p := os.Getenv("BANAS_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".banas/secure.json"
	}
	return dir + "/banas/secure.json"
}
