package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-required:"true"`
	Database   `yaml:"database"`
	HTTPServer `yaml:"http_server"`
	Storage    Storage       `yaml:"storage"`
	Clients    ClientsConfig `yaml:"clients"`
}

type Database struct {
	Host       string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port       int    `yaml:"port" env:"PORT" env-required:"true"`
	UsernameDB string `yaml:"username-db" env:"USERNAMEDB" env-required:"true"`
	Password   string `yaml:"password" env:"PASSWORD"`
	DBName     string `yaml:"dbname" env:"DBNAME" env-default:"iruka"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	Cors        []string      `yaml:"cors" env-default:"[http://localhost:3000]"`
}

// Storage configures the object store bucket (a gocloud.dev URL such as
// s3://bucket?region=ap-southeast-1 or file:///var/lib/iruka) and the CDN
// base the public play URLs are composed from.
type Storage struct {
	BucketURL            string        `yaml:"bucket_url" env:"BUCKET_URL" env-required:"true"`
	CDNBaseURL           string        `yaml:"cdn_base_url" env:"CDN_BASE_URL" env-required:"true"`
	SignedURLTTL         time.Duration `yaml:"signed_url_ttl" env-default:"15m"`
	MaxDirectUploadBytes int64         `yaml:"max_direct_upload_bytes" env-default:"4194304"`
}

type Client struct {
	Address      string        `yaml:"address" env-required:"true"`
	Timeout      time.Duration `yaml:"timeout" env-required:"true"`
	RetriesCount int           `yaml:"retries_count" env-required:"true"`
	AppID        uint32        `yaml:"app_id" env-required:"true"`
	Insecure     bool          `yaml:"insecure" env-required:"true"`
}

type ClientsConfig struct {
	SSO Client `yaml:"sso"`
}

func MustLoad() *Config {
	configPath := flag.String("config", "", "path to config yaml file")
	flag.Parse()
	if *configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", *configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(*configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s - %s", *configPath, err)
	}

	return &cfg
}

func (cfg *Database) GetDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.UsernameDB,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)
}
