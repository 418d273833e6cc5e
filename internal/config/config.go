package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"KHATA_ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	Postgres `yaml:"postgres"`
	Remote   Remote  `yaml:"remote"`
	Session  Session `yaml:"session"`
	Server   Server  `yaml:"server"`
	Mongo    Mongo   `yaml:"mongo"`
}

type Postgres struct {
	Host string `yaml:"host" env:"KHATA_PG_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"KHATA_PG_PORT" env-default:"5432"`
	User string `yaml:"user" env:"KHATA_PG_USER" env-default:"khata"`
	Pass string `yaml:"pass" env:"KHATA_PG_PASS" env-default:"khata"`
	Db   string `yaml:"db" env:"KHATA_PG_DB" env-default:"khata"`
}

// URL returns the lib/pq connection string for the local record store.
func (p Postgres) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Pass),
		Host:     p.Host + ":" + p.Port,
		Path:     p.Db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Remote describes the sync endpoint. A zero Timeout means requests never time out.
type Remote struct {
	URL     string        `yaml:"url" env:"KHATA_REMOTE_URL" env-default:"http://localhost:8081/sync/transactions"`
	Timeout time.Duration `yaml:"timeout" env:"KHATA_REMOTE_TIMEOUT" env-default:"0s"`
}

type Session struct {
	CachePath string        `yaml:"cache_path" env:"KHATA_SESSION_CACHE" env-default:"khata-session.yaml"`
	Secret    string        `yaml:"secret" env:"KHATA_SESSION_SECRET" env-default:"khata-local-secret"`
	TTL       time.Duration `yaml:"ttl" env:"KHATA_SESSION_TTL" env-default:"720h"`
}

// Server configures the reference sync endpoint.
type Server struct {
	Host string `yaml:"host" env:"KHATA_SERVER_HOST" env-default:"localhost"`
	Port int    `yaml:"port" env:"KHATA_SERVER_PORT" env-default:"8081"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"KHATA_MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"KHATA_MONGO_DB" env-default:"remotekhata"`
}

// Load reads the config file at path, or only the environment when path is empty.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading config from env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

// ResolvePath picks the config path from the flag value or CONFIG_PATH.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CONFIG_PATH")
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	return ResolvePath(res)
}
