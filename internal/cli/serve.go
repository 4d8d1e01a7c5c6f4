package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/cache"
	"github.com/matzehuels/grid3d/pkg/config"
	"github.com/matzehuels/grid3d/pkg/pipeline"
	"github.com/matzehuels/grid3d/pkg/server"
)

type serveOpts struct {
	addr     string
	maxNodes int
	maxEdges int64
	timeout  time.Duration
	noCache  bool
	envFile  string
	sinks    sinkFlags
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:     ":8080",
		maxNodes: server.DefaultMaxNodes,
		maxEdges: server.DefaultMaxEdges,
		timeout:  server.DefaultTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lattice generator over HTTP",
		Long: `Serve the lattice generator over HTTP.

The cache is Redis when ` + config.EnvRedisURL + ` is set, the local file cache
otherwise. With --mongo or --neo4j, requests with ?persist=true are saved to
the configured stores.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", opts.maxNodes, "largest grid accepted per request")
	cmd.Flags().Int64Var(&opts.maxEdges, "max-edges", opts.maxEdges, "largest edge count accepted per request")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "file with backend connection settings")
	cmd.Flags().BoolVar(&opts.sinks.mongo, "mongo", false, "enable persistence to MongoDB ("+config.EnvMongoURI+")")
	cmd.Flags().BoolVar(&opts.sinks.neo4j, "neo4j", false, "enable persistence to Neo4j ("+config.EnvNeo4jURI+")")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	env, err := config.LoadEnv(opts.envFile)
	if err != nil {
		return err
	}

	ch, err := serverCache(ctx, env, opts.noCache)
	if err != nil {
		return err
	}
	sinks, err := openSinks(ctx, env, opts.sinks)
	if err != nil {
		ch.Close()
		return err
	}
	runner := pipeline.NewRunner(ch, nil, c.Logger, sinks...)
	defer runner.Close()

	srv := server.New(runner, server.Options{
		Logger:   c.Logger,
		MaxNodes: opts.maxNodes,
		MaxEdges: opts.maxEdges,
		Timeout:  opts.timeout,
	})

	printSuccess("Serving on %s", StyleLink.Render("http://"+displayAddr(opts.addr)))
	printDetail("Cache: %s", cacheName(ch))
	for _, s := range sinks {
		printDetail("Persistence: %s", s.Name())
	}
	return srv.ListenAndServe(ctx, opts.addr)
}

// serverCache prefers Redis, shared between instances, over the file cache.
func serverCache(ctx context.Context, env config.Env, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if env.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{URL: env.RedisURL})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return newCache(false)
}

func cacheName(c cache.Cache) string {
	switch c := c.(type) {
	case *cache.RedisCache:
		return "redis"
	case *cache.FileCache:
		return c.Dir()
	default:
		return "disabled"
	}
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
