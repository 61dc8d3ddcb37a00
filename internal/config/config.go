package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

// AlertConfig drives the expiry scan. The thresholds are explicit so boundary
// behavior can be exercised without a rebuild.
type AlertConfig struct {
	PreNotificationDays int
	CronSpec            string
}

type StatusConfig struct {
	DateWarningDays     int
	OilWarningKm        int
	OilChangeIntervalKm int
}

type FCMConfig struct {
	// ServiceAccount is the raw service-account JSON. Empty disables push.
	ServiceAccount string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Alert       AlertConfig
	Status      StatusConfig
	FCM         FCMConfig
	Storage     StorageConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Alert: AlertConfig{
			PreNotificationDays: v.GetInt("ALERT_PRE_NOTIFICATION_DAYS"),
			CronSpec:            v.GetString("ALERT_CRON_SPEC"),
		},
		Status: StatusConfig{
			DateWarningDays:     v.GetInt("STATUS_DATE_WARNING_DAYS"),
			OilWarningKm:        v.GetInt("STATUS_OIL_WARNING_KM"),
			OilChangeIntervalKm: v.GetInt("OIL_CHANGE_INTERVAL_KM"),
		},
		FCM: FCMConfig{
			ServiceAccount: v.GetString("FCM_SERVICE_ACCOUNT"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("S3_ENDPOINT"),
			AccessKey:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretKey:     v.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:        v.GetString("S3_BUCKET"),
			Region:        v.GetString("S3_REGION"),
			PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Alert.PreNotificationDays == 0 {
		cfg.Alert.PreNotificationDays = 7
	}
	if cfg.Alert.CronSpec == "" {
		cfg.Alert.CronSpec = "0 8 * * *"
	}
	if cfg.Status.DateWarningDays == 0 {
		cfg.Status.DateWarningDays = 30
	}
	if cfg.Status.OilWarningKm == 0 {
		cfg.Status.OilWarningKm = 5000
	}
	if cfg.Status.OilChangeIntervalKm == 0 {
		cfg.Status.OilChangeIntervalKm = 40000
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "auto"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Alert.PreNotificationDays < 0 {
		return fmt.Errorf("ALERT_PRE_NOTIFICATION_DAYS must not be negative")
	}
	return nil
}
