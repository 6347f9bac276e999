package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/cowatch/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "PORT",
		flagKey:      "port",
		defaultValue: 8000,
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
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 50,
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 100,
	}
	syncThreshold = configVar[float64]{
		envKey:       "SERVER_SYNC_THRESHOLD",
		flagKey:      "sync-threshold",
		defaultValue: 2.0,
	}
	sendBuffer = configVar[int]{
		envKey:       "SERVER_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 64,
	}
	writeWait = configVar[time.Duration]{
		envKey:       "SERVER_WRITE_WAIT",
		flagKey:      "write-wait",
		defaultValue: 10 * time.Second,
	}
	pingInterval = configVar[time.Duration]{
		envKey:       "SERVER_PING_INTERVAL",
		flagKey:      "ping-interval",
		defaultValue: 30 * time.Second,
	}
	maxMessageSize = configVar[int64]{
		envKey:       "SERVER_MAX_MESSAGE_SIZE",
		flagKey:      "max-message-size",
		defaultValue: 32768,
	}
	directory = configVar[string]{
		envKey:       "SERVER_DIRECTORY",
		flagKey:      "directory",
		defaultValue: app.DirectoryMemory,
	}
	directoryInterval = configVar[time.Duration]{
		envKey:       "SERVER_DIRECTORY_INTERVAL",
		flagKey:      "directory-interval",
		defaultValue: 5 * time.Second,
	}
	videoMetadata = configVar[bool]{
		envKey:       "SERVER_VIDEO_METADATA",
		flagKey:      "video-metadata",
		defaultValue: true,
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

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in the room")
	pflag.Int(playlistLimit.flagKey, playlistLimit.defaultValue, "Maximum number of videos in the playlist")
	pflag.Float64(syncThreshold.flagKey, syncThreshold.defaultValue, "Position jump in seconds that is forwarded to viewers")
	pflag.Int(sendBuffer.flagKey, sendBuffer.defaultValue, "Outgoing events queued per connection")
	pflag.Duration(writeWait.flagKey, writeWait.defaultValue, "Time allowed to write a message to the peer")
	pflag.Duration(pingInterval.flagKey, pingInterval.defaultValue, "Interval between pings sent to the peer")
	pflag.Int64(maxMessageSize.flagKey, maxMessageSize.defaultValue, "Maximum size of an inbound message in bytes")
	pflag.String(directory.flagKey, directory.defaultValue, "Room directory backend (memory|redis)")
	pflag.Duration(directoryInterval.flagKey, directoryInterval.defaultValue, "Room directory publish interval")
	pflag.Bool(videoMetadata.flagKey, videoMetadata.defaultValue, "Fetch YouTube metadata for the room directory")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(membersLimit)
	bind(playlistLimit)
	bind(syncThreshold)
	bind(sendBuffer)
	bind(writeWait)
	bind(pingInterval)
	bind(maxMessageSize)
	bind(directory)
	bind(directoryInterval)
	bind(videoMetadata)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)

	config := &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		MembersLimit:      viper.GetInt(membersLimit.flagKey),
		PlaylistLimit:     viper.GetInt(playlistLimit.flagKey),
		SyncThreshold:     viper.GetFloat64(syncThreshold.flagKey),
		SendBuffer:        viper.GetInt(sendBuffer.flagKey),
		WriteWait:         viper.GetDuration(writeWait.flagKey),
		PingInterval:      viper.GetDuration(pingInterval.flagKey),
		MaxMessageSize:    viper.GetInt64(maxMessageSize.flagKey),
		Directory:         viper.GetString(directory.flagKey),
		DirectoryInterval: viper.GetDuration(directoryInterval.flagKey),
		VideoMetadata:     viper.GetBool(videoMetadata.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
