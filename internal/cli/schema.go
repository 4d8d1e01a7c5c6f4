package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
)

// schemaCommand creates the schema command.
func (c *CLI) schemaCommand() *cobra.Command {
	var (
		kind   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the parameters of each generator kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas, err := selectSchemas(kind)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(schemas)
			}
			for i, s := range schemas {
				if i > 0 {
					printNewline()
				}
				fmt.Println(renderSchema(s))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only this kind: grid or neighborhood")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the schemas as JSON")

	return cmd
}

// selectSchemas returns the schema of kind, or of every kind when kind is empty.
func selectSchemas(kind string) ([]lattice.Schema, error) {
	if kind == "" {
		out := make([]lattice.Schema, 0, len(lattice.Kinds))
		for _, k := range lattice.Kinds {
			s, _ := lattice.SchemaFor(k)
			out = append(out, s)
		}
		return out, nil
	}
	k, ok := lattice.ParseKind(kind)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidKind, "invalid kind: %q (must be grid or neighborhood)", kind)
	}
	s, _ := lattice.SchemaFor(k)
	return []lattice.Schema{s}, nil
}

// renderSchema formats s as a title line followed by a parameter table.
func renderSchema(s lattice.Schema) string {
	title := StyleTitle.Render(s.Name) + " " +
		StyleDim.Render(fmt.Sprintf("v%s · %s · kind %s", s.Version, s.Group, s.Kind))

	rows := make([][]string, len(s.Params))
	for i, p := range s.Params {
		rows[i] = []string{p.Name, string(p.Type), fmt.Sprint(p.Default), strings.Join(p.Values, ", "), p.Help}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Parameter", "Type", "Default", "Values", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 2:
				return StyleNumber
			case col == 4:
				return StyleDim.Width(48)
			}
			return StyleValue
		})

	return title + "\n" + t.Render()
}
