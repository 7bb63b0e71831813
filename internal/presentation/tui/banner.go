package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{`   ___ __ _ _ __   ___  _ __  _   _ `, "#34d399"},
	{`  / __/ _' | '_ \ / _ \| '_ \| | | |`, "#10b981"},
	{` | (_| (_| | | | | (_) | |_) | |_| |`, "#059669"},
	{`  \___\__,_|_| |_|\___/| .__/ \__, |`, "#047857"},
	{`                       |_|    |___/ `, "#065f46"},
}

// PrintBanner writes the canopy banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
