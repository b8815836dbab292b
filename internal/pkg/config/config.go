package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, policy knobs), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	DB     DBConfig
	CORS   CORSConfig
	Log    LogConfig
	JWT    JWTConfig
	Engine EngineConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// EngineConfig carries the reservation-engine policy knobs. Monetary rates
// are basis points (and the charge-efficiency factor per-mille) so price
// snapshots stay fixed-point end to end.
type EngineConfig struct {
	PlatformFeeBasisPoints int64         `envconfig:"ENGINE_PLATFORM_FEE_BP" default:"1500"`
	EfficiencyPerMille     int64         `envconfig:"ENGINE_EFFICIENCY_PER_MILLE" default:"800"`
	ClockSkewTolerance     time.Duration `envconfig:"ENGINE_CLOCK_SKEW_TOLERANCE" default:"2m"`
	StartGracePeriod       time.Duration `envconfig:"ENGINE_START_GRACE_PERIOD" default:"15m"`
	NoShowGracePeriod      time.Duration `envconfig:"ENGINE_NO_SHOW_GRACE_PERIOD" default:"30m"`
	HostResponseWindow     time.Duration `envconfig:"ENGINE_HOST_RESPONSE_WINDOW" default:"2h"`
	SweepInterval          time.Duration `envconfig:"ENGINE_SWEEP_INTERVAL" default:"1m"`
	ExtensionStep          time.Duration `envconfig:"ENGINE_EXTENSION_STEP" default:"30m"`
	IdempotencyTTL         time.Duration `envconfig:"ENGINE_IDEMPOTENCY_TTL" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Engine: EngineConfig{
			PlatformFeeBasisPoints: 1500,
			EfficiencyPerMille:     800,
			ClockSkewTolerance:     2 * time.Minute,
			StartGracePeriod:       15 * time.Minute,
			NoShowGracePeriod:      30 * time.Minute,
			HostResponseWindow:     2 * time.Hour,
			SweepInterval:          time.Minute,
			ExtensionStep:          30 * time.Minute,
			IdempotencyTTL:         24 * time.Hour,
		},
	}
}
