package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/studyflow/internal/config"
	"github.com/zulandar/studyflow/internal/db"
	"github.com/zulandar/studyflow/internal/logging"
	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/store"
)

const (
	defaultConfigPath = "studyflow.yaml"
	envUser           = "STUDYFLOW_USER"
)

// app is everything a command needs to talk to a board.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	feed  realtime.Feed
	store *store.Store
	log   *log.Logger

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// loadConfig reads configPath. A missing file at the default path falls back
// to the built-in defaults.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if configPath == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

// openApp loads the config, connects to the database and builds the store
// with the configured realtime feed. Logs go to logOut.
func openApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: gormDB, log: logger}
	if sqlDB, err := gormDB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	switch cfg.Realtime.Backend {
	case "redis":
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Realtime.Addr,
			Password: cfg.Realtime.Password,
			DB:       cfg.Realtime.DB,
		})
		a.closers = append(a.closers, rc.Close)
		a.feed = realtime.NewRedisFeed(rc, cfg.Realtime.ChannelPrefix, logger)
	default:
		hub := realtime.NewHub(logger)
		a.closers = append(a.closers, func() error { hub.Close(); return nil })
		a.feed = hub
	}

	a.store = store.New(gormDB, a.feed, cfg.Defaults, logger)
	return a, nil
}

// addConfigFlag registers the --config flag shared by every command.
func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to StudyFlow config file")
}

// addUserFlag registers --user, defaulting to $STUDYFLOW_USER, then $USER.
func addUserFlag(cmd *cobra.Command, user *string) {
	def := os.Getenv(envUser)
	if def == "" {
		def = os.Getenv("USER")
	}
	cmd.Flags().StringVarP(user, "user", "u", def, "user ID acting on the board")
}

func requireUser(user string) error {
	if user == "" {
		return fmt.Errorf("no user: pass --user or set %s", envUser)
	}
	return nil
}
