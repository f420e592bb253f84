package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	App struct {
		Port      string `mapstructure:"port"`
		Env       string `mapstructure:"env"`
		PublicURL string `mapstructure:"publicUrl"` // Base URL of the web app, used for the billing page link
	} `mapstructure:"app"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Razorpay struct {
		KeyID         string `mapstructure:"keyId"`
		KeySecret     string `mapstructure:"keySecret"`
		WebhookSecret string `mapstructure:"webhookSecret"`
		PlanID        string `mapstructure:"planId"`
	} `mapstructure:"razorpay"`
	Replicate struct {
		APIToken string `mapstructure:"apiToken"`
	} `mapstructure:"replicate"`
	Stability struct {
		APIKey string `mapstructure:"apiKey"`
	} `mapstructure:"stability"`
	Auth struct {
		JWTSecret string `mapstructure:"jwtSecret"`
	} `mapstructure:"auth"`
}

// RazorpayConfigured reports whether gateway credentials are present.
// Checked once at startup; when false the subscription endpoints answer
// 503 instead of the service crashing on a nil client.
func (c *Config) RazorpayConfigured() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.KeySecret != ""
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env is optional outside production
		_ = godotenv.Load(path)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	bindEnvOverrides()

	if err := viper.ReadInConfig(); err != nil {
		// Running from environment variables alone is supported
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.App.Port == "" {
		config.App.Port = "8080"
	}

	return &config, nil
}

// bindEnvOverrides maps well-known environment variables onto config keys.
func bindEnvOverrides() {
	_ = viper.BindEnv("app.port", "SERVER_PORT")
	_ = viper.BindEnv("app.env", "APP_ENV")
	_ = viper.BindEnv("app.publicUrl", "APP_PUBLIC_URL")
	_ = viper.BindEnv("database.dsn", "DATABASE_DSN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = viper.BindEnv("razorpay.keyId", "RAZORPAY_KEY_ID")
	_ = viper.BindEnv("razorpay.keySecret", "RAZORPAY_KEY_SECRET")
	_ = viper.BindEnv("razorpay.webhookSecret", "RAZORPAY_WEBHOOK_SECRET")
	_ = viper.BindEnv("razorpay.planId", "RAZORPAY_PLAN_ID")
	_ = viper.BindEnv("replicate.apiToken", "REPLICATE_API_TOKEN")
	_ = viper.BindEnv("stability.apiKey", "STABILITY_API_KEY")
	_ = viper.BindEnv("auth.jwtSecret", "AUTH_JWT_SECRET")
}
