// Package cli implements the grid3d command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/buildinfo"
	"github.com/matzehuels/grid3d/pkg/cache"
	"github.com/matzehuels/grid3d/pkg/config"
	"github.com/matzehuels/grid3d/pkg/pipeline"
	"github.com/matzehuels/grid3d/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "grid3d"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out     io.Writer
	logFile io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "grid3d generates 3-D lattice graphs",
		Long:         `grid3d enumerates regular 3-D lattices of W×H×D nodes and connects them by a fixed degree (0, 4 or 8) or by a radius neighborhood. Graphs are written as JSON, DOT, SVG, PDF or PNG and can be persisted to MongoDB and Neo4j.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.presetsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// =============================================================================
// Runner Factory
// =============================================================================

// sinkFlags selects the persistence backends of a command.
type sinkFlags struct {
	mongo bool
	neo4j bool
}

func (f sinkFlags) any() bool { return f.mongo || f.neo4j }

// newRunner creates a pipeline runner for CLI use. Backends named by sinks
// are connected with the settings from env.
func (c *CLI) newRunner(ctx context.Context, noCache bool, env config.Env, sinks sinkFlags) (*pipeline.Runner, error) {
	ch, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	opened, err := openSinks(ctx, env, sinks)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger, opened...), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openSinks connects the requested stores. A requested store without a
// configured URI is an error.
func openSinks(ctx context.Context, env config.Env, f sinkFlags) ([]store.Sink, error) {
	var sinks []store.Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close(context.Background())
		}
	}

	if f.mongo {
		if env.MongoURI == "" {
			return nil, fmt.Errorf("--mongo requires %s", config.EnvMongoURI)
		}
		m, err := store.NewMongoStore(ctx, store.MongoOptions{URI: env.MongoURI})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, m)
	}

	if f.neo4j {
		if env.Neo4jURI == "" {
			closeAll()
			return nil, fmt.Errorf("--neo4j requires %s", config.EnvNeo4jURI)
		}
		exec, err := store.NewNeo4jExecutor(ctx, store.Neo4jOptions{
			URI:      env.Neo4jURI,
			User:     env.Neo4jUser,
			Password: env.Neo4jPassword,
			Database: env.Neo4jDatabase,
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, store.NewNeo4jStore(exec, store.DefaultBatchSize))
	}

	return sinks, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/grid3d/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}
