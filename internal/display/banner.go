package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the startup banner with a status line under it,
// centred for width columns (the terminal width when width <= 0).
func RenderBanner(width int, status string) string {
	if width <= 0 {
		width = TermWidth()
	}

	art := BannerStyle.Render(strings.TrimRight(bannerRaw, "\n"))
	block := art
	if status != "" {
		block = lipgloss.JoinVertical(lipgloss.Center, art, "", secondaryStyle.Render(status))
	}
	if lipgloss.Width(block) >= width {
		return block + "\n"
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

// TermWidth reports the stdout terminal width, or 80 when stdout is not a
// terminal.
func TermWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
