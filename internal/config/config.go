/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	PaystackBaseURL    string `mapstructure:"PAYSTACK_BASE_URL"`
	PaystackSecretKey  string `mapstructure:"PAYSTACK_SECRET_KEY"`
	PaystackBank       string `mapstructure:"PAYSTACK_PREFERRED_BANK"`
	AlrahuzBaseURL     string `mapstructure:"ALRAHUZ_BASE_URL"`
	AlrahuzToken       string `mapstructure:"ALRAHUZ_TOKEN"`
	SmePlugBaseURL     string `mapstructure:"SMEPLUG_BASE_URL"`
	SmePlugSecretKey   string `mapstructure:"SMEPLUG_SECRET_KEY"`
	BilalBaseURL       string `mapstructure:"BILAL_BASE_URL"`
	BilalToken         string `mapstructure:"BILAL_TOKEN"`
	VendorHookToken    string `mapstructure:"VENDOR_WEBHOOK_TOKEN"`
	DefaultVendor      string `mapstructure:"DEFAULT_VENDOR"`
	MetricsNamespace   string `mapstructure:"METRICS_NAMESPACE"`
	CodeTTLMinutes     int    `mapstructure:"CODE_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("PAYSTACK_PREFERRED_BANK", "wema-bank")
	viper.SetDefault("ALRAHUZ_BASE_URL", "https://alrahuzdata.com.ng/api")
	viper.SetDefault("SMEPLUG_BASE_URL", "https://smeplug.ng/api/v1")
	viper.SetDefault("BILAL_BASE_URL", "https://bilalsadasub.com/api")
	viper.SetDefault("DEFAULT_VENDOR", "alrahuz")
	viper.SetDefault("METRICS_NAMESPACE", "vtu")
	viper.SetDefault("CODE_TTL_MINUTES", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("PAYSTACK_BASE_URL")
	_ = viper.BindEnv("PAYSTACK_SECRET_KEY")
	_ = viper.BindEnv("PAYSTACK_PREFERRED_BANK")
	_ = viper.BindEnv("ALRAHUZ_BASE_URL")
	_ = viper.BindEnv("ALRAHUZ_TOKEN")
	_ = viper.BindEnv("SMEPLUG_BASE_URL")
	_ = viper.BindEnv("SMEPLUG_SECRET_KEY")
	_ = viper.BindEnv("BILAL_BASE_URL")
	_ = viper.BindEnv("BILAL_TOKEN")
	_ = viper.BindEnv("VENDOR_WEBHOOK_TOKEN")
	_ = viper.BindEnv("DEFAULT_VENDOR")
	_ = viper.BindEnv("METRICS_NAMESPACE")
	_ = viper.BindEnv("CODE_TTL_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform-provided PORT takes precedence over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.DefaultVendor = strings.TrimSpace(config.DefaultVendor)
	if config.DefaultVendor == "" {
		config.DefaultVendor = "alrahuz"
	}
	if config.CodeTTLMinutes <= 0 {
		config.CodeTTLMinutes = 10
	}

	return
}
