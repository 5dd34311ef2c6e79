// Package config provides YAML-based configuration loading for StudyFlow.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level StudyFlow configuration, loaded from studyflow.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the SQL backend. The sqlite driver uses Path; the
// mysql driver uses Host/Port/User/Password/Name.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// RealtimeConfig selects the change feed backend: "memory" keeps events in
// process, "redis" fans them out over Redis pub/sub.
type RealtimeConfig struct {
	Backend       string `yaml:"backend"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// ServerConfig holds dashboard HTTP settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// NotifyConfig controls deadline reminders.
type NotifyConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Command  CommandConfig `yaml:"command"`
}

// SlackConfig configures the Slack reminder sender.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig configures the Discord reminder sender.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// CommandConfig runs an external program for every reminder. The rendered
// message is written to its stdin.
type CommandConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// DefaultsConfig is the content of a freshly created board.
type DefaultsConfig struct {
	BoardTitle string           `yaml:"board_title"`
	Columns    []string         `yaml:"columns"`
	Subjects   []SubjectDefault `yaml:"subjects"`
}

// SubjectDefault is one seeded subject.
type SubjectDefault struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables that override secrets from the YAML file.
const (
	EnvDBPassword    = "STUDYFLOW_DB_PASSWORD"
	EnvRedisPassword = "STUDYFLOW_REDIS_PASSWORD"
	EnvJWTSecret     = "STUDYFLOW_JWT_SECRET"
	EnvSlackToken    = "STUDYFLOW_SLACK_TOKEN"
	EnvDiscordToken  = "STUDYFLOW_DISCORD_TOKEN"
)

// DefaultColumns are the four slot columns of a new board.
var DefaultColumns = []string{"Assigned", "In Progress", "Done", "Repeat"}

// DefaultSubjects are seeded into a new board.
var DefaultSubjects = []SubjectDefault{
	{Name: "Math", Color: "#3b82f6"},
	{Name: "Physics", Color: "#ef4444"},
	{Name: "Chemistry", Color: "#a855f7"},
	{Name: "Biology", Color: "#22c55e"},
	{Name: "History", Color: "#f59e0b"},
	{Name: "Literature", Color: "#06b6d4"},
	{Name: "English", Color: "#ec4899"},
	{Name: "Computer Science", Color: "#84cc16"},
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the config, when present, is loaded into the process
// environment first so secrets can stay out of the YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envPath, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyEnv overrides secrets from the environment.
func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Database.Password, EnvDBPassword)
	override(&c.Realtime.Password, EnvRedisPassword)
	override(&c.Server.JWTSecret, EnvJWTSecret)
	override(&c.Notify.Slack.BotToken, EnvSlackToken)
	override(&c.Notify.Discord.BotToken, EnvDiscordToken)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "studyflow.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "studyflow"
		}
	}
	if c.Realtime.Backend == "" {
		c.Realtime.Backend = "memory"
	}
	if c.Realtime.Backend == "redis" && c.Realtime.Addr == "" {
		c.Realtime.Addr = "127.0.0.1:6379"
	}
	if c.Realtime.ChannelPrefix == "" {
		c.Realtime.ChannelPrefix = "studyflow"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Issuer == "" {
		c.Server.Issuer = "studyflow"
	}
	if c.Notify.Schedule == "" {
		c.Notify.Schedule = "*/15 * * * *"
	}
	if c.Defaults.BoardTitle == "" {
		c.Defaults.BoardTitle = "My Board"
	}
	if len(c.Defaults.Columns) == 0 {
		c.Defaults.Columns = append([]string(nil), DefaultColumns...)
	}
	if c.Defaults.Subjects == nil {
		c.Defaults.Subjects = append([]SubjectDefault(nil), DefaultSubjects...)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	switch c.Realtime.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("realtime.backend %q must be memory or redis", c.Realtime.Backend))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.Channel == "" {
		errs = append(errs, "notify.slack.channel is required when a slack token is set")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when a discord token is set")
	}
	for i, name := range c.Defaults.Columns {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("defaults.columns[%d] is empty", i))
		}
	}
	seen := make(map[string]bool)
	for i, s := range c.Defaults.Subjects {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Sprintf("defaults.subjects[%d].name is required", i))
			continue
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("defaults.subjects[%d].name %q is duplicated", i, s.Name))
		}
		seen[key] = true
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
