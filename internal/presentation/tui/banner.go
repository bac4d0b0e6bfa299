package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Perennial.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Lime-to-teal gradient, one shade per row.
	s1 := termenv.String("  _____                          _       _ ").Foreground(p.Color("#bef264"))
	s2 := termenv.String(" |  __ \\___ _ __ ___ _ __  _ __ (_) __ _| |").Foreground(p.Color("#a3e635"))
	s3 := termenv.String(" | |__) / _ \\ '__/ _ \\ '_ \\| '_ \\| |/ _` | |").Foreground(p.Color("#4ade80"))
	s4 := termenv.String(" |  ___/  __/ | |  __/ | | | | | | | (_| | |").Foreground(p.Color("#34d399"))
	s5 := termenv.String(" | |    \\___|_|  \\___|_| |_|_| |_|_|\\__,_|_|").Foreground(p.Color("#2dd4bf"))
	s6 := termenv.String(" |_|").Foreground(p.Color("#14b8a6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
