package command

import (
	"github.com/adamavenir/storytime/internal/catalog"
	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Env      core.Env
	Home     core.Home
	Settings *core.Settings
	Log      *db.BookLog
	Logger   *zap.Logger
	JSONMode bool
}

// GetContext loads the environment and settings for a command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	homeFlag, _ := cmd.Flags().GetString("home")
	env, err := core.LoadEnv(homeFlag)
	if err != nil {
		return nil, err
	}
	jsonMode, _ := cmd.Flags().GetBool("json")

	home := core.NewHome(env.Home)
	if err := home.Ensure(); err != nil {
		return nil, err
	}

	logger, err := core.NewLogger(home.LogPath(), env.LogLevel)
	if err != nil {
		logger = zap.NewNop()
	}

	settings, err := core.ReadSettings(home)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Env:      env,
		Home:     home,
		Settings: settings,
		Log:      db.NewBookLog(home.BookLogPath()),
		Logger:   logger,
		JSONMode: jsonMode,
	}, nil
}

// Registry builds the reader registry with counts derived from the book log.
func (c *CommandContext) Registry() (*registry.Registry, error) {
	counts, err := c.Log.CountByReader()
	if err != nil {
		return nil, err
	}
	return registry.New(c.Settings.Readers, counts), nil
}

// Catalog returns a catalog client, or core.ErrCatalogUnavailable when the
// endpoints are not configured.
func (c *CommandContext) Catalog() (*catalog.Client, error) {
	if err := c.Env.RequireCatalog(); err != nil {
		return nil, err
	}
	return catalog.NewClient(catalog.Options{
		SearchURL: c.Env.SearchURL,
		CoverURL:  c.Env.CoverURL,
		Logger:    c.Logger,
	}), nil
}

// OpenIndex opens the sqlite cache of the book log.
func (c *CommandContext) OpenIndex() (*db.Index, error) {
	return db.OpenIndex(c.Home.IndexPath(), c.Log)
}

// Close flushes the logger.
func (c *CommandContext) Close() {
	_ = c.Logger.Sync()
}
