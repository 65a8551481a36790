package config

import (
	"fmt"
	"os"
	"strings"

	"hangman/common/log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Conf is the process-wide configuration, populated once by Load.
var Conf Configuration

type Configuration struct {
	ID           string `mapstructure:"id"`
	HttpPort     int    `mapstructure:"httpPort"`
	WsPort       int    `mapstructure:"wsPort"`
	MetricPort   int    `mapstructure:"metricPort"`
	RoundGraceMs int    `mapstructure:"roundGraceMs"`
	LogConf      `mapstructure:"log"`
	DatabaseConf `mapstructure:"database"`
	NatsConf     `mapstructure:"nats"`
	MailConf     `mapstructure:"mail"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type DatabaseConf struct {
	// Driver selects the room snapshot store: "mongo" or "redis".
	Driver    string    `mapstructure:"driver"`
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

type NatsConf struct {
	URL string `json:"url" mapstructure:"url"`
}

type MailConf struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
	To       string `mapstructure:"to"`
}

// RoundGrace returns the delay between the round-ended popup and the next
// round prompt. The observed client toast runs 3.5s; that is the default.
func (c *Configuration) RoundGrace() int {
	if c.RoundGraceMs <= 0 {
		return 3500
	}
	return c.RoundGraceMs
}

func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.ID = nodeID
	}
	if cfg.ID == "" {
		return fmt.Errorf("config is missing an id and NODE_ID is not set")
	}
	if cfg.DatabaseConf.Driver == "" {
		cfg.DatabaseConf.Driver = "mongo"
	}
	Conf = cfg

	// Level changes take effect without a restart; everything else needs one.
	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		var next Configuration
		if err := v.Unmarshal(&next); err != nil {
			log.Warn("config reload failed: %v", err)
			return
		}
		if next.LogConf.Level != Conf.LogConf.Level {
			Conf.LogConf.Level = next.LogConf.Level
			log.SetLevel(next.LogConf.Level)
			log.Info("log level changed to %s", next.LogConf.Level)
		}
	})

	return nil
}
