package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/playtube/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	apiBaseURL = configVar[string]{
		envKey:       "API_BASE_URL",
		flagKey:      "api-base-url",
		defaultValue: "https://pipedapi.kavin.rocks",
	}
	sponsorBlockURL = configVar[string]{
		envKey:       "SPONSORBLOCK_URL",
		flagKey:      "sponsorblock-url",
		defaultValue: "https://sponsor.ajay.app",
	}
	skipCategories = configVar[[]string]{
		envKey:       "SKIP_CATEGORIES",
		flagKey:      "skip-categories",
		defaultValue: []string{"sponsor"},
	}
	autoplay = configVar[bool]{
		envKey:       "AUTOPLAY",
		flagKey:      "autoplay",
		defaultValue: true,
	}
	maxQualityHeight = configVar[int]{
		envKey:       "MAX_QUALITY_HEIGHT",
		flagKey:      "max-quality-height",
		defaultValue: 0,
	}
	allowDegraded = configVar[bool]{
		envKey:       "ALLOW_DEGRADED",
		flagKey:      "allow-degraded",
		defaultValue: false,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(apiBaseURL.flagKey, apiBaseURL.defaultValue, "Metadata API base URL")
	pflag.String(sponsorBlockURL.flagKey, sponsorBlockURL.defaultValue, "SponsorBlock API base URL")
	pflag.StringSlice(skipCategories.flagKey, skipCategories.defaultValue, "Segment categories to auto-skip")
	pflag.Bool(autoplay.flagKey, autoplay.defaultValue, "Start playback automatically after loading")
	pflag.Int(maxQualityHeight.flagKey, maxQualityHeight.defaultValue, "Maximum stream height, 0 for unlimited")
	pflag.Bool(allowDegraded.flagKey, allowDegraded.defaultValue, "Accept single-track playback when one track fails")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(apiBaseURL.flagKey, apiBaseURL.envKey)
	viper.BindEnv(sponsorBlockURL.flagKey, sponsorBlockURL.envKey)
	viper.BindEnv(skipCategories.flagKey, skipCategories.envKey)
	viper.BindEnv(autoplay.flagKey, autoplay.envKey)
	viper.BindEnv(maxQualityHeight.flagKey, maxQualityHeight.envKey)
	viper.BindEnv(allowDegraded.flagKey, allowDegraded.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(apiBaseURL.flagKey, apiBaseURL.defaultValue)
	viper.SetDefault(sponsorBlockURL.flagKey, sponsorBlockURL.defaultValue)
	viper.SetDefault(skipCategories.flagKey, skipCategories.defaultValue)
	viper.SetDefault(autoplay.flagKey, autoplay.defaultValue)
	viper.SetDefault(maxQualityHeight.flagKey, maxQualityHeight.defaultValue)
	viper.SetDefault(allowDegraded.flagKey, allowDegraded.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		APIBaseURL:       viper.GetString(apiBaseURL.flagKey),
		SponsorBlockURL:  viper.GetString(sponsorBlockURL.flagKey),
		SkipCategories:   viper.GetStringSlice(skipCategories.flagKey),
		Autoplay:         viper.GetBool(autoplay.flagKey),
		MaxQualityHeight: viper.GetInt(maxQualityHeight.flagKey),
		AllowDegraded:    viper.GetBool(allowDegraded.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
