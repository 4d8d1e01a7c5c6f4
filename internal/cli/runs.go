package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/config"
	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/graph"
	"github.com/matzehuels/grid3d/pkg/store"
)

// runCatalog is the queryable side of the document store.
type runCatalog interface {
	List(ctx context.Context, limit int64) ([]store.Summary, error)
	Get(ctx context.Context, id string) (*store.Record, error)
}

// runChecker is implemented by sinks whose Delete does not report missing
// runs.
type runChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// runsCommand creates the runs command for persisted generations.
func (c *CLI) runsCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and delete persisted generations",
		Long: `Inspect and delete generations persisted with --mongo or --neo4j.

list and show read the MongoDB record; delete removes a run from every
selected store.`,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with backend connection settings")

	cmd.AddCommand(c.runsListCommand(&envFile))
	cmd.AddCommand(c.runsShowCommand(&envFile))
	cmd.AddCommand(c.runsDeleteCommand(&envFile))
	return cmd
}

func (c *CLI) runsListCommand(envFile *string) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMongo(cmd.Context(), *envFile, func(m *store.MongoStore) error {
				return listRuns(cmd.Context(), m, limit)
			})
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	return cmd
}

func (c *CLI) runsShowCommand(envFile *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a persisted run and optionally export its graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMongo(cmd.Context(), *envFile, func(m *store.MongoStore) error {
				return showRun(cmd.Context(), m, args[0], output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph as JSON to this file")
	return cmd
}

func (c *CLI) runsDeleteCommand(envFile *string) *cobra.Command {
	var sinks sinkFlags
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a persisted run",
		Long: `Delete a persisted run from the selected stores. Without --mongo or
--neo4j, MongoDB is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sinks.any() {
				sinks.mongo = true
			}
			env, err := config.LoadEnv(*envFile)
			if err != nil {
				return err
			}
			opened, err := openSinks(cmd.Context(), env, sinks)
			if err != nil {
				return err
			}
			defer closeSinks(opened)

			names, err := deleteRun(cmd.Context(), args[0], opened)
			if err != nil {
				return err
			}
			for _, n := range names {
				printSuccess("Deleted run %s from %s", args[0], n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sinks.mongo, "mongo", false, "delete from MongoDB ("+config.EnvMongoURI+")")
	cmd.Flags().BoolVar(&sinks.neo4j, "neo4j", false, "delete from Neo4j ("+config.EnvNeo4jURI+")")
	return cmd
}

// withMongo opens the MongoDB store configured in envFile for fn.
func withMongo(ctx context.Context, envFile string, fn func(*store.MongoStore) error) error {
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return err
	}
	sinks, err := openSinks(ctx, env, sinkFlags{mongo: true})
	if err != nil {
		return err
	}
	defer closeSinks(sinks)
	return fn(sinks[0].(*store.MongoStore))
}

func closeSinks(sinks []store.Sink) {
	for _, s := range sinks {
		_ = s.Close(context.Background())
	}
}

func listRuns(ctx context.Context, cat runCatalog, limit int64) error {
	runs, err := cat.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No persisted runs")
		return nil
	}
	fmt.Println(renderRunTable(runs))
	return nil
}

func renderRunTable(runs []store.Summary) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID, r.Kind,
			humanize.Comma(int64(r.NodeCount)),
			humanize.Comma(int64(r.EdgeCount)),
			humanize.Time(r.CreatedAt),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "Kind", "Nodes", "Edges", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 2 || col == 3:
				return StyleNumber
			case col == 4:
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

// showRun prints the record of id and writes its graph to output when set.
func showRun(ctx context.Context, cat runCatalog, id, output string) error {
	rec, err := cat.Get(ctx, id)
	if err != nil {
		return err
	}
	g, err := graph.Import(rec.Graph)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}

	printSuccess("Run %s", StyleValue.Render(rec.ID))
	printKeyValue("kind", rec.Kind)
	printKeyValue("created", rec.CreatedAt.Local().Format("2006-01-02 15:04:05")+" ("+humanize.Time(rec.CreatedAt)+")")
	printKeyValue("nodes", humanize.Comma(int64(g.NodeCount())))
	printKeyValue("edges", humanize.Comma(int64(g.EdgeCount())))
	printDegrees(g)

	if output == "" {
		return nil
	}
	if err := graph.WriteGraphFile(g, output); err != nil {
		return err
	}
	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	printFile(output, int(info.Size()))
	return nil
}

// deleteRun removes id from every sink and returns the names of the sinks
// that held it. A run held by none of them is NOT_FOUND.
func deleteRun(ctx context.Context, id string, sinks []store.Sink) ([]string, error) {
	var deleted []string
	for _, s := range sinks {
		if rc, ok := s.(runChecker); ok {
			exists, err := rc.Exists(ctx, id)
			if err != nil {
				return deleted, fmt.Errorf("%s: %w", s.Name(), err)
			}
			if !exists {
				continue
			}
		}
		err := s.Delete(ctx, id)
		if errors.Is(err, errors.ErrCodeNotFound) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("%s: %w", s.Name(), err)
		}
		deleted = append(deleted, s.Name())
	}
	if len(deleted) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	return deleted, nil
}
