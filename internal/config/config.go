package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Configuration struct {
	Server struct {
		Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
		Port string `envconfig:"SERVER_PORT" default:"8080"`
	}
	Database struct {
		Address      string `envconfig:"MONGO_ADDRESS" default:"mongodb://localhost:27017"`
		DatabaseName string `envconfig:"MONGO_DATABASE" default:"chess_review"`
		Collection   string `envconfig:"MONGO_COLLECTION" default:"reports"`
	}
	Redis struct {
		// Address empty disables the evaluation cache.
		Address  string        `envconfig:"REDIS_ADDRESS"`
		Password string        `envconfig:"REDIS_PASSWORD"`
		DB       int           `envconfig:"REDIS_DB"`
		TTL      time.Duration `envconfig:"REDIS_TTL" default:"168h"`
	}
	Engine struct {
		Path    string   `envconfig:"STOCKFISH_PATH" default:"stockfish"`
		Args    []string `envconfig:"STOCKFISH_ARGS"`
		Workers int      `envconfig:"ENGINE_WORKERS" default:"4"`
	}
	Analysis struct {
		Depth        int           `envconfig:"ANALYSIS_DEPTH" default:"12"`
		MoveBound    time.Duration `envconfig:"ANALYSIS_MOVE_BOUND" default:"8s"`
		BookPlyLimit int           `envconfig:"ANALYSIS_BOOK_PLY_LIMIT" default:"20"`
	}
}

func Load() (Configuration, error) {
	var cfg Configuration
	err := envconfig.Process("", &cfg)
	return cfg, err
}
