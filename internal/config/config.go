/**
 * @description
 * Configuration management for the security-service. Settings come from
 * environment variables with defaults for everything that has a sane local
 * value.
 */
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the security service.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	TokenSecret        string `mapstructure:"TOKEN_SECRET"`
	TokenTTLMinutes    int    `mapstructure:"TOKEN_TTL_MINUTES"`
	SessionTTLMinutes  int    `mapstructure:"SESSION_TTL_MINUTES"`
	Pending2FATTL      int    `mapstructure:"PENDING_2FA_TTL_MINUTES"`
	TOTPIssuer         string `mapstructure:"TOTP_ISSUER"`
	JokeAPIURL         string `mapstructure:"JOKE_API_URL"`
	JokeEmailSchedule  string `mapstructure:"JOKE_EMAIL_SCHEDULE"`
	JokeSMSSchedule    string `mapstructure:"JOKE_SMS_SCHEDULE"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("SESSION_TTL_MINUTES", 1440)    // 24 hours
	viper.SetDefault("PENDING_2FA_TTL_MINUTES", 5)   // second-factor window
	viper.SetDefault("TOTP_ISSUER", "Security System")
	viper.SetDefault("JOKE_API_URL", "https://v2.jokeapi.dev")
	viper.SetDefault("JOKE_EMAIL_SCHEDULE", "0 9 * * *") // At 09:00 daily.
	viper.SetDefault("JOKE_SMS_SCHEDULE", "0 9 * * *")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TOKEN_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("SESSION_TTL_MINUTES")
	_ = viper.BindEnv("PENDING_2FA_TTL_MINUTES")
	_ = viper.BindEnv("TOTP_ISSUER")
	_ = viper.BindEnv("JOKE_API_URL")
	_ = viper.BindEnv("JOKE_EMAIL_SCHEDULE")
	_ = viper.BindEnv("JOKE_SMS_SCHEDULE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.TokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET must be set")
	}

	return &config, nil
}
