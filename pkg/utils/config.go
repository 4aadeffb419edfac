package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Reservation ReservationConfig
	Queue       QueueConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type ReservationConfig struct {
	HoldWindow    time.Duration
	SweepInterval time.Duration
	SweepBatch    int
	OpTimeout     time.Duration
}

type QueueConfig struct {
	// URL is the AMQP broker address. Empty disables event publishing.
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("HOLD_WINDOW_MINUTES", 10)
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)
	viper.SetDefault("OP_TIMEOUT_SECONDS", 5)
	viper.SetDefault("AMQP_EXCHANGE", "reservation.events")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Reservation: ReservationConfig{
			HoldWindow:    time.Duration(viper.GetInt("HOLD_WINDOW_MINUTES")) * time.Minute,
			SweepInterval: time.Duration(viper.GetInt("SWEEP_INTERVAL_SECONDS")) * time.Second,
			SweepBatch:    viper.GetInt("SWEEP_BATCH_SIZE"),
			OpTimeout:     time.Duration(viper.GetInt("OP_TIMEOUT_SECONDS")) * time.Second,
		},
		Queue: QueueConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
	}

	return config, nil
}
