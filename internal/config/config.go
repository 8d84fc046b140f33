package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Device   DeviceConfig `mapstructure:"device"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type DeviceConfig struct {
	Host                 string
	Port                 uint
	Name                 string
	PollIntervalMillis   uint32 `mapstructure:"poll_interval_millis"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
	MaxPollFailures      uint   `mapstructure:"max_poll_failures"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (d DeviceConfig) Address() pranadev.DeviceAddress {
	return pranadev.DeviceAddress{
		Host: d.Host,
		Port: d.Port,
	}
}

func (d DeviceConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalMillis) * time.Millisecond
}

func (d DeviceConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutMillis) * time.Millisecond
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
