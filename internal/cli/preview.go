package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/export"
	"github.com/quantfocus/semsim/pkg/imaging"
)

// previewCommand creates the preview command for viewing an image in the terminal.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		columns int
		static  bool
	)

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Show an exported image in the terminal",
		Long: `Show an exported PNG or TIFF image in the terminal using half-block
characters. The viewer follows the terminal size; press q or esc to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := export.ReadImage(args[0])
			if err != nil {
				return err
			}
			title := filepath.Base(args[0])
			var sink imaging.Sink = &teaSink{ctx: cmd.Context(), title: title}
			if static {
				sink = &textSink{w: c.out, title: title, columns: columns}
			}
			return imaging.Deliver(sink, r)
		},
	}

	cmd.Flags().BoolVar(&static, "print", false, "print one frame instead of starting the viewer")
	cmd.Flags().IntVar(&columns, "columns", 80, "frame width in characters with --print")
	return cmd
}

// teaSink shows rasters in an interactive bubbletea viewer.
type teaSink struct {
	ctx   context.Context
	title string
}

func (s *teaSink) Accept(width, height int, pix []byte) error {
	m := newPreviewModel(s.title, &imaging.Raster{Pix: pix, Width: width, Height: height})
	_, err := tea.NewProgram(m, tea.WithContext(s.ctx), tea.WithAltScreen()).Run()
	return err
}

// textSink prints a single frame, for pipes and non-interactive use.
type textSink struct {
	w       io.Writer
	title   string
	columns int
}

func (s *textSink) Accept(width, height int, pix []byte) error {
	r := imaging.ScaleToWidth(&imaging.Raster{Pix: pix, Width: width, Height: height}, minPreviewWidth)
	cols := s.columns
	if cols < 1 {
		cols = 80
	}
	fmt.Fprintln(s.w, StyleTitle.Render(s.title)+" "+StyleDim.Render(fmt.Sprintf("%dx%d", width, height)))
	fmt.Fprint(s.w, renderHalfBlocks(r, cols, 0))
	return nil
}

// =============================================================================
// previewModel - Interactive image viewer
// =============================================================================

type previewModel struct {
	title         string
	width, height int // source size
	display       *imaging.Raster
	cols, rows    int // terminal size
}

func newPreviewModel(title string, r *imaging.Raster) previewModel {
	return previewModel{
		title:   title,
		width:   r.Width,
		height:  r.Height,
		display: imaging.ScaleToWidth(r, minPreviewWidth),
		cols:    80,
		rows:    24,
	}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%dx%d", m.width, m.height)))
	b.WriteString("\n")
	// Two lines are taken by the title and the key help.
	b.WriteString(renderHalfBlocks(m.display, m.cols, m.rows-2))
	b.WriteString(StyleDim.Render("q quit"))
	return b.String()
}

// renderHalfBlocks draws r with "▀" cells, each covering two pixel rows:
// the top pixel as foreground and the bottom one as background. The frame
// fits in maxCols by maxRows cells keeping the aspect ratio; maxRows <= 0
// means unbounded.
func renderHalfBlocks(r *imaging.Raster, maxCols, maxRows int) string {
	if r.Width == 0 || r.Height == 0 || maxCols < 1 {
		return ""
	}
	cols := min(maxCols, r.Width)
	pixRows := r.Height * cols / r.Width
	if maxRows > 0 && (pixRows+1)/2 > maxRows {
		pixRows = maxRows * 2
		cols = max(1, r.Width*pixRows/r.Height)
	}
	pixRows = max(pixRows, 1)

	var b strings.Builder
	for y := 0; y < pixRows; y += 2 {
		for x := 0; x < cols; x++ {
			sx := x * r.Width / cols
			top := r.At(sx, y*r.Height/pixRows)
			bottom := top
			if y+1 < pixRows {
				bottom = r.At(sx, (y+1)*r.Height/pixRows)
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(grayColor(top)).
				Background(grayColor(bottom)).
				Render("▀"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func grayColor(v byte) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", v, v, v))
}
