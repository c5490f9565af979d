package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BufferSize           int           `envconfig:"IT_BUFFER_SIZE" default:"64"`
	ConnectionBufferSize int           `envconfig:"IT_CONNECTION_BUFFER_SIZE" default:"32"`
	SinkTimeout          time.Duration `envconfig:"IT_SINK_TIMEOUT" default:"2s"`
	// IT_READ_TIMEOUT bounds how long a client waits for a single frame
	ReadTimeout    time.Duration `envconfig:"IT_READ_TIMEOUT" default:"3s"`
	MaxMessageSize int64         `envconfig:"IT_MAX_MESSAGE_SIZE" default:"8192"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
