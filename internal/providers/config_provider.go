package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"deckd/internal/structures"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.timeout", 10*time.Second)
	v.SetDefault("storage.queueSize", 256)
	v.SetDefault("editor.maxSessions", 1000)
	v.SetDefault("editor.sessionTTL", 30*time.Minute)
	v.SetDefault("editor.maxDocumentSize", 32<<20)
	v.SetDefault("renderer.workers", 4)
	v.SetDefault("renderer.timeout", 20*time.Second)
	v.SetDefault("cache.ttl", 60)
	v.SetDefault("persistence.coldTTL", 7*24*time.Hour)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setConfigDefaults(v)

	v.BindEnv("logger.level", "DECKD_LOG_LEVEL")
	v.BindEnv("persistence.saveInterval", "DECKD_SAVE_INTERVAL")
	v.BindEnv("storage.driver", "DECKD_STORAGE_DRIVER")
	v.BindEnv("storage.url", "DECKD_STORAGE_URL")
	v.BindEnv("cache.enabled", "DECKD_CACHE_ENABLED")
	v.BindEnv("cache.size", "DECKD_CACHE_SIZE")
	v.BindEnv("renderer.headless", "DECKD_HEADLESS")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ClickDeckDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
