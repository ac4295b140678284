package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=50051"`
	WebsocketPort        int           `env:"WS_PORT,default=8080"`
	DebugPort            int           `env:"DEBUG_PORT,default=0"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	NumberOfWorkers      int           `env:"NUMBER_OF_WORKERS,default=4"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=3s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=1m"`
	HistoryBackend       string        `env:"HISTORY_BACKEND,default=memory"`
	HistoryDefaultLimit  int           `env:"HISTORY_DEFAULT_LIMIT,default=50"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

const (
	HistoryBackendMemory = "memory"
	HistoryBackendBadger = "badger"
)

func (c Config) Validate() error {
	if c.NumberOfWorkers <= 0 {
		return fmt.Errorf("NUMBER_OF_WORKERS must be positive, got %d", c.NumberOfWorkers)
	}
	if c.BufferSize < 0 || c.ConnectionBufferSize < 0 {
		return fmt.Errorf("buffer sizes must not be negative")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive, got %s", c.DeliveryTimeout)
	}
	switch c.HistoryBackend {
	case HistoryBackendMemory, HistoryBackendBadger:
	default:
		return fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q",
			HistoryBackendMemory, HistoryBackendBadger, c.HistoryBackend)
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
