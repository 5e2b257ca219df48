// Package config provides Viper-based configuration loading for the arena server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// AdminSecret guards the /admin endpoints. Empty disables them.
	AdminSecret string `mapstructure:"admin_secret"`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ArenaConfig holds the combat arena dimensions and pacing rules.
type ArenaConfig struct {
	// GridWidth is the board width in squares.
	GridWidth int `mapstructure:"grid_width"`
	// GridHeight is the board height in squares.
	GridHeight int `mapstructure:"grid_height"`
	// SquareSizeFt is the edge length of one square in feet.
	SquareSizeFt int `mapstructure:"square_size_ft"`
	// TurnTimeout is the advisory deadline granted to each turn holder.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// MaxPlayers caps the roster of a single arena.
	MaxPlayers int `mapstructure:"max_players"`
	// DefaultSpeed is the movement speed (feet per turn) for joining characters.
	DefaultSpeed int `mapstructure:"default_speed"`
}

// NPCSpawnConfig names one NPC template to keep alive in an arena.
type NPCSpawnConfig struct {
	// Template is the template name as declared in its YAML definition.
	Template string `mapstructure:"template"`
}

// NPCConfig holds NPC template loading and spawn settings.
type NPCConfig struct {
	// TemplatesDir is the directory holding NPC template YAML files.
	TemplatesDir string `mapstructure:"templates_dir"`
	// Spawns lists the templates spawned into every arena.
	Spawns []NPCSpawnConfig `mapstructure:"spawns"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is the "host:port" of the Redis server.
	Addr string `mapstructure:"addr"`
	// Password is the Redis AUTH password. Empty means no auth.
	Password string `mapstructure:"password"`
	// DB is the Redis logical database number.
	DB int `mapstructure:"db"`
}

// StorageConfig selects and configures the snapshot persistence backend.
type StorageConfig struct {
	// Backend is the snapshot store implementation: "file", "postgres", or "redis".
	Backend string `mapstructure:"backend"`
	// FileDir is the snapshot directory for the file backend.
	FileDir string `mapstructure:"file_dir"`
	// AccountsFile is the JSON account store path. Ignored when the
	// postgres backend holds accounts in its own table.
	AccountsFile string `mapstructure:"accounts_file"`
	// Database configures the postgres backend.
	Database DatabaseConfig `mapstructure:"database"`
	// Redis configures the redis backend.
	Redis RedisConfig `mapstructure:"redis"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Arena   ArenaConfig   `mapstructure:"arena"`
	NPC     NPCConfig     `mapstructure:"npc"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateArena(c.Arena); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateNPC(c.NPC); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.GridWidth < 2 {
		errs = append(errs, fmt.Sprintf("arena.grid_width must be >= 2, got %d", a.GridWidth))
	}
	if a.GridHeight < 2 {
		errs = append(errs, fmt.Sprintf("arena.grid_height must be >= 2, got %d", a.GridHeight))
	}
	if a.SquareSizeFt < 1 {
		errs = append(errs, fmt.Sprintf("arena.square_size_ft must be >= 1, got %d", a.SquareSizeFt))
	}
	if a.TurnTimeout < 0 {
		errs = append(errs, "arena.turn_timeout must not be negative")
	}
	if a.MaxPlayers < 2 {
		errs = append(errs, fmt.Sprintf("arena.max_players must be >= 2, got %d", a.MaxPlayers))
	}
	if a.DefaultSpeed < 0 {
		errs = append(errs, fmt.Sprintf("arena.default_speed must be >= 0, got %d", a.DefaultSpeed))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNPC(n NPCConfig) error {
	var errs []string
	if len(n.Spawns) > 0 && n.TemplatesDir == "" {
		errs = append(errs, "npc.templates_dir must not be empty when npc.spawns is set")
	}
	for i, s := range n.Spawns {
		if s.Template == "" {
			errs = append(errs, fmt.Sprintf("npc.spawns[%d].template must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Backend {
	case "file":
		if s.FileDir == "" {
			return errors.New("storage.file_dir must not be empty for the file backend")
		}
		if s.AccountsFile == "" {
			return errors.New("storage.accounts_file must not be empty for the file backend")
		}
	case "postgres":
		if err := validateDatabase(s.Database); err != nil {
			return err
		}
	case "redis":
		if s.Redis.Addr == "" {
			return errors.New("storage.redis.addr must not be empty for the redis backend")
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db must be >= 0, got %d", s.Redis.DB)
		}
		if s.AccountsFile == "" {
			return errors.New("storage.accounts_file must not be empty for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of [file, postgres, redis], got %q", s.Backend)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "storage.database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("storage.database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "storage.database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "storage.database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("storage.database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("storage.database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("storage.database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "storage.database.min_conns must not exceed storage.database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("arena.grid_width", 20)
	v.SetDefault("arena.grid_height", 20)
	v.SetDefault("arena.square_size_ft", 5)
	v.SetDefault("arena.turn_timeout", "30s")
	v.SetDefault("arena.max_players", 6)
	v.SetDefault("arena.default_speed", 30)

	v.SetDefault("npc.templates_dir", "templates/npc")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.file_dir", "data/arenas")
	v.SetDefault("storage.accounts_file", "data/accounts.json")
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "arena")
	v.SetDefault("storage.database.password", "arena")
	v.SetDefault("storage.database.name", "arena")
	v.SetDefault("storage.database.sslmode", "disable")
	v.SetDefault("storage.database.max_conns", 10)
	v.SetDefault("storage.database.min_conns", 2)
	v.SetDefault("storage.database.max_conn_lifetime", "1h")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
