package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/quantfocus/semsim/pkg/materials"
	"github.com/quantfocus/semsim/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleTableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
	iconFailed  = "failed"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(18)
	fmt.Fprintln(w, "  "+keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// renderJobsTable shows one row per job: parameters, raster size, where
// the grids came from and how many files were written.
func renderJobsTable(res *pipeline.Result, labels []string) string {
	files := make(map[int]int, len(res.Exports))
	for _, e := range res.Exports {
		files[e.Index] = len(e.Paths)
	}

	rows := make([][]string, len(res.Jobs))
	status := make([]string, len(res.Jobs))
	for i, j := range res.Jobs {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		if j == nil {
			status[i] = iconFailed
			rows[i] = []string{strconv.Itoa(i), "", "", label, "", iconFailed, "0"}
			continue
		}
		status[i] = iconFresh
		if j.Cached {
			status[i] = iconCached
		}
		rows[i] = []string{
			strconv.Itoa(i),
			j.Params.Mode().String(),
			strconv.FormatFloat(j.Params.EnergyKeV(), 'f', -1, 64) + " keV",
			label,
			fmt.Sprintf("%dx%d", j.Raster.Width, j.Raster.Height),
			status[i],
			strconv.Itoa(files[i]),
		}
	}

	t := newTable("#", "Mode", "Energy", "Material", "Size", "Grids", "Files").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if col == 5 && row >= 0 && row < len(status) {
				switch status[row] {
				case iconCached:
					return styleTableCell.Foreground(colorGreen)
				case iconFailed:
					return styleTableCell.Foreground(colorRed)
				default:
					return styleTableCell.Foreground(colorGray)
				}
			}
			return styleTableCell
		})
	return t.Render()
}

// renderMaterialsTable lists catalog entries, presets first.
func renderMaterialsTable(entries []materials.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		kind := "custom"
		if e.Preset {
			kind = "preset"
		}
		rows[i] = []string{
			e.Name,
			strconv.Itoa(e.AtomicNumber),
			strconv.FormatFloat(e.DensityGCM3, 'f', -1, 64),
			kind,
		}
	}
	t := newTable("Name", "Z", "Density (g/cm³)", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if col == 3 && row >= 0 && row < len(entries) && !entries[row].Preset {
				return styleTableCell.Foreground(colorCyan)
			}
			return styleTableCell
		})
	return t.Render()
}

// joinDim joins parts with a dimmed separator.
func joinDim(parts ...string) string {
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}
