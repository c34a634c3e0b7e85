package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _____", "#818cf8"},
	{" |  ___|__  _ __ ___ _ __ ___   __ _ _ __", "#a78bfa"},
	{" | |_ / _ \\| '__/ _ \\ '_ ` _ \\ / _` | '_ \\", "#c084fc"},
	{" |  _| (_) | | |  __/ | | | | | (_| | | | |", "#e879f9"},
	{" |_|  \\___/|_|  \\___|_| |_| |_|\\__,_|_| |_|", "#f472b6"},
}

// PrintBanner writes the foreman banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}

// Speaker formats a worker name as a bold, colored heading label.
func Speaker(name string) string {
	p := termenv.ColorProfile()
	return termenv.String("▍" + name).Bold().Foreground(p.Color("#a78bfa")).String()
}
