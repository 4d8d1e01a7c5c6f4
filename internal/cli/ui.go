package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/grid3d/pkg/graph"
)

// Palette. Numbers are ANSI 256 colors.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings of tables and pickers.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight for parameter names.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for paths, IDs and other values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber for counts and defaults in tables.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleWarning for warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleSpinner  = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// status is a one-character marker in front of a message.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = status{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (s status) print(msg string) {
	fmt.Println(s.style.Render(s.icon) + " " + msg)
}

func printSuccess(format string, args ...any) {
	statusSuccess.print(fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	statusError.print(fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusWarning.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusInfo.print(fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line below a status message.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written file with its size.
func printFile(path string, size int) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path) +
		" " + StyleDim.Render(humanize.Bytes(uint64(size))))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// statsLine joins the node and edge counts and whether the graph came from
// the cache: "1,000 nodes · 2,700 edges · cached".
func statsLine(nodeCount, edgeCount int, cached bool) string {
	origin := styleComputed.Render("fresh")
	if cached {
		origin = styleCached.Render("cached")
	}
	return strings.Join([]string{
		StyleDim.Render(humanize.Comma(int64(nodeCount)) + " nodes"),
		StyleDim.Render(humanize.Comma(int64(edgeCount)) + " edges"),
		origin,
	}, StyleDim.Render(" · "))
}

func printStats(nodeCount, edgeCount int, cached bool) {
	fmt.Println("  " + statsLine(nodeCount, edgeCount, cached))
}

// degreeLine formats a degree summary: "degree 3-6, mean 4.50". A regular
// lattice prints a single degree.
func degreeLine(d graph.DegreeStats) string {
	if d.Min == d.Max {
		return fmt.Sprintf("degree %d", d.Min)
	}
	return fmt.Sprintf("degree %d-%d, mean %.2f", d.Min, d.Max, d.Mean)
}

func printDegrees(g *graph.Graph) {
	printDetail("%s", degreeLine(g.Degrees()))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
