package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=localhost"`
	Port int    `env:"PORT,default=8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	// Realtime path sizing. DeliveryBufferSize is the fan-out queue;
	// SessionBufferSize is each connection's private send buffer.
	DeliveryBufferSize int           `env:"DELIVERY_BUFFER_SIZE,required=true"`
	SessionBufferSize  int           `env:"SESSION_BUFFER_SIZE,required=true"`
	SinkTimeout        time.Duration `env:"SINK_TIMEOUT,required=true"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,required=true"`

	LimitMessages int           `env:"LIMIT_MESSAGES,default=50"`
	StatsInterval time.Duration `env:"STATS_INTERVAL,required=true"`
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
