package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
)

// Preset is a named, ready-to-generate lattice.
type Preset struct {
	Name        string
	Description string
	Kind        lattice.Kind
	Params      lattice.Params
}

func gridPreset(name, desc string, w, h, d int, conn string) Preset {
	return Preset{
		Name: name, Description: desc, Kind: lattice.KindGrid,
		Params: lattice.Params{
			lattice.ParamWidth: w, lattice.ParamHeight: h, lattice.ParamDepth: d,
			lattice.ParamConnectivity: conn,
			lattice.ParamPositioning:  true, lattice.ParamSpacing: 1.0,
		},
	}
}

func neighborhoodPreset(name, desc string, w, h, d int, radius float64, typ string) Preset {
	return Preset{
		Name: name, Description: desc, Kind: lattice.KindNeighborhood,
		Params: lattice.Params{
			lattice.ParamWidth: w, lattice.ParamHeight: h, lattice.ParamDepth: d,
			lattice.ParamRadius: radius, lattice.ParamNeighborhoodType: typ,
			lattice.ParamPositioning: true, lattice.ParamSpacing: 1.0,
		},
	}
}

// Presets lists the built-in lattices.
var Presets = []Preset{
	gridPreset("cube-20", "20×20×20 cube, axis neighbors", 20, 20, 20, "4"),
	gridPreset("small", "4×4×4 cube, axis neighbors", 4, 4, 4, "4"),
	gridPreset("diagonal", "10×10×10 cube with diagonals", 10, 10, 10, "8"),
	gridPreset("sheet", "64×64 flat sheet", 64, 64, 1, "4"),
	gridPreset("points", "10×10×10 isolated nodes", 10, 10, 10, "0"),
	neighborhoodPreset("ball", "8×8×8, Euclidean ball of radius 1.5", 8, 8, 8, 1.5, lattice.NeighborhoodCircular),
	neighborhoodPreset("moore", "6×6×6, 26-neighborhood", 6, 6, 6, 1, lattice.NeighborhoodSquare),
}

// findPreset returns the preset called name.
func findPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// edgeEstimate returns the edge count of a fixed-degree preset from the
// closed form, or "—" when no closed form applies.
func (p Preset) edgeEstimate() string {
	cfg, err := lattice.Validate(p.Kind, p.Params)
	if err != nil {
		return "—"
	}
	fd, ok := cfg.Policy.(lattice.FixedDegree)
	if !ok {
		return "—"
	}
	return humanize.Comma(int64(lattice.EdgeCount(cfg.Width, cfg.Height, cfg.Depth, fd.Degree)))
}

func (p Preset) nodeCount() string {
	w, _ := p.Params.Int(lattice.ParamWidth)
	h, _ := p.Params.Int(lattice.ParamHeight)
	d, _ := p.Params.Int(lattice.ParamDepth)
	return humanize.Comma(int64(w * h * d))
}

// presetsCommand creates the presets command. Without an argument it opens
// an interactive picker.
func (c *CLI) presetsCommand() *cobra.Command {
	var (
		opts generateOpts
		list bool
	)

	cmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "Generate one of the built-in lattices",
		Long: `Generate one of the built-in lattices.

Without a name, an interactive list is shown. Use --list to print the
presets instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				fmt.Println(renderPresetTable(Presets, -1, 0, len(Presets)))
				return nil
			}

			var preset Preset
			if len(args) == 1 {
				p, ok := findPreset(args[0])
				if !ok {
					return errors.New(errors.ErrCodeInvalidInput, "unknown preset %q", args[0])
				}
				preset = p
			} else {
				m, err := tea.NewProgram(NewPresetListModel(Presets)).Run()
				if err != nil {
					return fmt.Errorf("preset picker: %w", err)
				}
				sel := m.(PresetListModel).Selected
				if sel == nil {
					return nil
				}
				preset = *sel
			}

			if opts.output == "" && len(strings.Split(opts.formats, ",")) <= 1 {
				opts.output = preset.Name + "." + formatOrDefault(opts.formats)
			}
			return c.runGenerate(cmd.Context(), preset.Kind, preset.Params.Clone(), opts)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the presets and exit")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func formatOrDefault(s string) string {
	if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
		return s
	}
	return "json"
}

// =============================================================================
// PresetListModel - Interactive preset selection
// =============================================================================

// PresetListModel is the bubbletea model for interactive preset selection.
type PresetListModel struct {
	Presets  []Preset
	Cursor   int
	Selected *Preset
	Height   int
	Offset   int
}

// NewPresetListModel creates a new preset list model.
func NewPresetListModel(presets []Preset) PresetListModel {
	return PresetListModel{Presets: presets, Height: 15}
}

func (m PresetListModel) Init() tea.Cmd {
	return nil
}

func (m PresetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Presets)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			p := m.Presets[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 3)
	}
	return m, nil
}

func (m PresetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preset"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ generate  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Presets))
	b.WriteString(renderPresetTable(m.Presets, m.Cursor, m.Offset, end))
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Presets))))

	return b.String()
}

// renderPresetTable renders presets[offset:end]. The row at cursor is
// highlighted; pass -1 for a static listing.
func renderPresetTable(presets []Preset, cursor, offset, end int) string {
	rows := [][]string{}
	for i := offset; i < end; i++ {
		p := presets[i]
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		rows = append(rows, []string{marker, p.Name, string(p.Kind), p.nodeCount(), p.edgeEstimate(), p.Description})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Preset", "Kind", "Nodes", "Edges", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if offset+row == cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 || col == 4 {
				return StyleNumber
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
