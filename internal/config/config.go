package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Late-submission policies. "flag" stores late work marked as late;
// "reject" refuses it outright unless the assignment allows late work.
const (
	LatePolicyFlag   = "flag"
	LatePolicyReject = "reject"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	JWTRefreshSecret  string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	BcryptCost        int
	LatePolicy        string
	DashboardCacheTTL time.Duration
	UploadCloudName   string
	UploadAPIKey      string
	UploadAPISecret   string
	UploadFolder      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUCORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduCore API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("bcrypt.cost", 12)
	v.SetDefault("submission.late_policy", LatePolicyFlag)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("upload.folder", "educore/attachments")

	accessTTL, err := time.ParseDuration(v.GetString("jwt.access_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid access token ttl: %w", err)
	}

	refreshTTL, err := time.ParseDuration(v.GetString("jwt.refresh_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid refresh token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTRefreshSecret:  v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:    accessTTL,
		RefreshTokenTTL:   refreshTTL,
		BcryptCost:        v.GetInt("bcrypt.cost"),
		LatePolicy:        strings.ToLower(v.GetString("submission.late_policy")),
		DashboardCacheTTL: cacheTTL,
		UploadCloudName:   v.GetString("upload.cloud_name"),
		UploadAPIKey:      v.GetString("upload.api_key"),
		UploadAPISecret:   v.GetString("upload.api_secret"),
		UploadFolder:      v.GetString("upload.folder"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.LatePolicy != LatePolicyFlag && cfg.LatePolicy != LatePolicyReject {
		return Config{}, fmt.Errorf("unknown late policy %q", cfg.LatePolicy)
	}

	if cfg.BcryptCost < 10 || cfg.BcryptCost > 16 {
		cfg.BcryptCost = 12
	}

	return cfg, nil
}
