package util

import (
	"github.com/berfenger/prana2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Device: config.DeviceConfig{
			Host:                 "-.-.-.-",
			Port:                 80,
			Name:                 "Prana Test",
			PollIntervalMillis:   5000,
			RequestTimeoutMillis: 2000,
			MaxPollFailures:      3,
		},
		MQTT: config.MQTTConfig{
			Host: "localhost",
			Port: 1883,
		},
		Port: 8080,
	}
}
