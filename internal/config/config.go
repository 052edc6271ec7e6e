package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"talentquiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development" validate:"oneof=development test staging production"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres   Postgres
	Redis      Redis
	Storage    Storage
	Security   Security
	Generation Generation
	Assessment Assessment
	CORS       CORS
}

// Postgres captures connection info for the submissions database.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:"postgres"`
	Password string `env:"PG_PASSWORD" envDefault:"postgres"`
	Database string `env:"PG_DATABASE" envDefault:"talentquiz"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10" validate:"gte=1"`
}

// DSN renders a libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// ConnString renders the DSN with pgxpool settings.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.DSN(), p.MaxConns)
}

// LoadPostgres parses only the Postgres section, for tools that need nothing else.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}

// Redis holds the key-value store connection.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Storage selects the backends for tests, questions and submissions.
type Storage struct {
	Backend            string        `env:"STORAGE_BACKEND" envDefault:"redis" validate:"oneof=redis memory"`
	Prefix             string        `env:"STORAGE_PREFIX" envDefault:"talentquiz"`
	TTL                time.Duration `env:"STORAGE_TTL" envDefault:"0s"`
	PersistSubmissions bool          `env:"PERSIST_SUBMISSIONS" envDefault:"true"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	AccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"talentquiz"`
}

// Generation configures the completion endpoint and the generation queue.
type Generation struct {
	BaseURL      string        `env:"GENERATION_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"url"`
	APIKey       string        `env:"GENERATION_API_KEY" envDefault:""`
	Model        string        `env:"GENERATION_MODEL" envDefault:"gpt-4o-mini"`
	Temperature  float64       `env:"GENERATION_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	Timeout      time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`
	DefaultCount int           `env:"GENERATION_DEFAULT_COUNT" envDefault:"3" validate:"gte=1,lte=50"`
	DefaultLevel string        `env:"GENERATION_DEFAULT_LEVEL" envDefault:"senior"`
	QueueSize    int           `env:"GENERATION_QUEUE_SIZE" envDefault:"32" validate:"gte=1"`
}

// Assessment tunes attempt hosting.
type Assessment struct {
	TickInterval   time.Duration `env:"ASSESSMENT_TICK_INTERVAL" envDefault:"1s"`
	Retention      time.Duration `env:"ATTEMPT_RETENTION" envDefault:"2h"`
	ReaperInterval time.Duration `env:"ATTEMPT_REAPER_INTERVAL" envDefault:"1m"`
	PersistTimeout time.Duration `env:"SUBMISSION_PERSIST_TIMEOUT" envDefault:"5s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// InMemory reports whether the service runs without Redis.
func (a *App) InMemory() bool {
	return a.Env == "test" || a.Storage.Backend == "memory"
}

// PersistenceEnabled reports whether completed submissions are written to
// Postgres. The in-memory mode never touches Postgres.
func (a *App) PersistenceEnabled() bool {
	return a.Storage.PersistSubmissions && !a.InMemory()
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().StructCtx(ctx, cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
