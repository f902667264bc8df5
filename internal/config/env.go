package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env            string        `envconfig:"ENV" default:"local"`
	HTTPHost       string        `envconfig:"HTTP_HOST" default:""`
	HTTPPort       string        `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"debug"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

type StorageEnv struct {
	Type           string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir        string `envconfig:"STORAGE_BASE_DIR" default:".agentgate/data"`
	PermissionsKey string `envconfig:"PERMISSIONS_KEY" default:"permissions.json"`
	ProfilesKey    string `envconfig:"PROFILES_KEY" default:"user_profiles.json"`
	// WriteAttempts bounds the optimistic retry loop of every document mutation.
	WriteAttempts int `envconfig:"WRITE_ATTEMPTS" default:"5"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"agentgate/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type Env struct {
	BaseEnv
	StorageEnv
}

const namespace = "AGENTGATE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
