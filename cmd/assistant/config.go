package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/trungtd/schedassist/internal/logger"
	"github.com/trungtd/schedassist/internal/rabbit"
	internalhttp "github.com/trungtd/schedassist/internal/server/http"
	"github.com/trungtd/schedassist/internal/storagebuilder"
)

const envConfigPrefix = "$env:"

type SchedulerConfig struct {
	CheckInterval time.Duration
	RepeatDelay   time.Duration
	Timezone      string
}

type Config struct {
	Server    internalhttp.Config
	Logger    logger.Config
	Storage   storagebuilder.Config
	Rabbit    rabbit.Config
	Scheduler SchedulerConfig
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8010")
	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "memory")
	viper.SetDefault("rabbit.host", "127.0.0.1")
	viper.SetDefault("rabbit.port", "5672")
	viper.SetDefault("rabbit.user", "user")
	viper.SetDefault("rabbit.password", "pass")
	viper.SetDefault("rabbit.queue", "assistant.notify")
	viper.SetDefault("scheduler.checkInterval", "5s")
	viper.SetDefault("scheduler.repeatDelay", "60s")
	viper.SetDefault("scheduler.timezone", "Asia/Ho_Chi_Minh")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
