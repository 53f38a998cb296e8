package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Local storage drivers
const (
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string
		Server       ServerConfig
		Auth         AuthConfig
		Storage      StorageConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	AuthConfig struct {
		// Latency is the simulated round trip of login and signup.
		Latency         time.Duration
		RegNumberDigits int
		VerifyPasswords bool
		// SessionKey is the local storage key of the persisted identity.
		SessionKey string
	}

	StorageConfig struct {
		Driver        string
		Path          string
		RedisAddr     string
		RedisPassword string
		RedisPrefix   string
	}
)

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Studious Vault")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k3y-9d$w!xq)7s=studious&vault+^q2#nr5u(l0@z")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("auth.latency", time.Second)
	v.SetDefault("auth.regNumberDigits", 16)
	v.SetDefault("auth.verifyPasswords", false)
	v.SetDefault("auth.sessionKey", "studiousVaultUser")

	v.SetDefault("storage.driver", StorageBolt)
	v.SetDefault("storage.path", filepath.Join("var", "studiousvault.db"))
	v.SetDefault("storage.redisAddr", "localhost:6379")
	v.SetDefault("storage.redisPassword", "")
	v.SetDefault("storage.redisPrefix", "studiousvault:")
}

// NewConfig loads the configuration of the current environment (ENV).
// Values come from defaults, then config/.env.<env> if it exists, then the environment (<ENV>_KEY).
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Auth: AuthConfig{
			Latency:         v.GetDuration("auth.latency"),
			RegNumberDigits: v.GetInt("auth.regNumberDigits"),
			VerifyPasswords: v.GetBool("auth.verifyPasswords"),
			SessionKey:      v.GetString("auth.sessionKey"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("storage.driver")),
			Path:          v.GetString("storage.path"),
			RedisAddr:     v.GetString("storage.redisAddr"),
			RedisPassword: v.GetString("storage.redisPassword"),
			RedisPrefix:   v.GetString("storage.redisPrefix"),
		},
	}
	if err := conf.check(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(conf.Storage.Path) {
		conf.Storage.Path = filepath.Join(wd, conf.Storage.Path)
	}
	return conf, nil
}

func (c *Config) check() error {
	switch c.Storage.Driver {
	case StorageBolt, StorageRedis, StorageMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.RegNumberDigits <= 0 {
		return errors.Errorf("auth.regNumberDigits must be positive (got %d)", c.Auth.RegNumberDigits)
	}
	if c.Auth.Latency < 0 {
		return errors.Errorf("auth.latency must not be negative (got %v)", c.Auth.Latency)
	}
	if c.Auth.SessionKey == "" {
		return errors.New("auth.sessionKey is required")
	}
	return nil
}
