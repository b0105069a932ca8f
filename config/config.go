// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath        = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "r2", "firebase", "memory"}
	validDrivers      = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	bindEnvs()
	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		// Env only deployments are fine
		fmt.Println("[WARNING]: config.toml not found, using defaults and environment variables")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return Validate()
}

func bindEnvs() {
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_url")

	v.BindEnv("jwt.secret", "jwt_secret_key")
	v.BindEnv("jwt.issuer", "jwt_issuer")
	v.BindEnv("jwt.audience", "jwt_audience")
	v.BindEnv("jwt.ttl", "jwt_ttl")

	v.BindEnv("security.rate_limit", "security_rate_limit")
	v.BindEnv("security.min_password_length", "security_min_password_length")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.image_width", "upload_image_width")
	v.BindEnv("upload.image_quality", "upload_image_quality")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.prefix", "storage_prefix")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.public_url", "aws_public_url")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")
	v.BindEnv("cloudflare.public_url", "cloudflare_public_url")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("firebase.bucket", "firebase_bucket")
	v.BindEnv("firebase.credentials_file", "firebase_credentials_file")
}

// SetDefaults registers the default value of every key. Exported so tests
// can get a usable configuration without a config file.
func SetDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3333)
	v.SetDefault("host.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.issuer", "urn:grandeva:issuer")
	v.SetDefault("jwt.audience", "urn:grandeva:audience")
	v.SetDefault("jwt.ttl", 30*24*time.Hour)

	v.SetDefault("security.rate_limit", 20)
	v.SetDefault("security.min_password_length", 3)

	v.SetDefault("upload.max_size", 4)
	v.SetDefault("upload.image_width", 800)
	v.SetDefault("upload.image_quality", 80)

	v.SetDefault("storage.type", "firebase")
	v.SetDefault("storage.prefix", "products/")

	v.SetDefault("cloudflare.turnstile.enabled", false)
}

// Validate checks the loaded values. It's split from Setup so that it can be
// exercised without touching the flag set.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetDuration("jwt.ttl") <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("upload.image_width") <= 0 {
		return errors.New("upload.image_width must be bigger than 0")
	}

	if q := v.GetInt("upload.image_quality"); q <= 0 || q > 100 {
		return errors.New("upload.image_quality must be between 1 and 100")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt("security.min_password_length") <= 0 {
		return errors.New("security.min_password_length must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key") == "" {
				return errors.New("aws access key can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("aws secret access key can't be empty")
			}
			if v.GetString("aws.region") == "" {
				return errors.New("aws region can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "r2":
		{
			if v.GetString("cloudflare.account_id") == "" {
				return errors.New("account id can't be empty")
			}
			if v.GetString("cloudflare.access_key_id") == "" {
				return errors.New("account access id can't be empty")
			}
			if v.GetString("cloudflare.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("cloudflare.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
			if v.GetString("cloudflare.public_url") == "" {
				return errors.New("r2 needs a public url to build image links")
			}
		}
	case "firebase":
		{
			if v.GetString("firebase.bucket") == "" {
				return errors.New("firebase bucket can't be empty")
			}
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetBool("cloudflare.turnstile.enabled") {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	// Stored in MB, used in bytes
	v.Set("upload.max_size_bytes", v.GetInt64("upload.max_size")<<20)
	return nil
}
