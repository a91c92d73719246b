package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/library-management/pkg/kafka"
	"github.com/Astemirdum/library-management/pkg/logger"
	"github.com/Astemirdum/library-management/pkg/mongodb"
	"github.com/Astemirdum/library-management/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type Driver string

const (
	DriverMongo    Driver = "mongo"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

type HTTPServer struct {
	Host         string        `envconfig:"HTTP_HOST"`
	Port         string        `envconfig:"PORT" default:"5000"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Config struct {
	Server   HTTPServer
	Driver   Driver `envconfig:"DB_DRIVER" default:"mongo"`
	Mongo    mongodb.Config
	Database postgres.DB
	Kafka    kafka.Config
	Log      logger.Log
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
		return nil
	}
	return fmt.Errorf("unknown DB_DRIVER %q", c.Driver)
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options set values that have no
// environment default; a matching variable still wins.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := load(&config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func load(config *Config) error {
	if err := envconfig.Process("", config); err != nil {
		return err
	}
	return config.Validate()
}

func printConfig(cfg *Config) {
	redacted := *cfg
	redacted.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(redacted, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
