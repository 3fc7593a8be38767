package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the shelfscan ASCII banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Shelf tones, from spine to page.
	lines := []struct {
		text  string
		color string
	}{
		{`      _          _  __                      `, "#34d399"},
		{`  ___| |__   ___| |/ _|___  ___ __ _ _ __   `, "#2dd4bf"},
		{` / __| '_ \ / _ \ | |_/ __|/ __/ _' | '_ \  `, "#22d3ee"},
		{` \__ \ | | |  __/ |  _\__ \ (_| (_| | | | | `, "#38bdf8"},
		{` |___/_| |_|\___|_|_| |___/\___\__,_|_| |_| `, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
