// Package ui owns the banner and the tool's version identifiers.
package ui

import (
	"fmt"

	"github.com/fatih/color"
	terminal "github.com/wayneashleyberry/terminal-dimensions"
)

// Version information, overridable at build time via ldflags:
//
//	go build -ldflags "-X github.com/osprey-sec/osprey/pkg/ui.Version=1.0.0"
var (
	Version = "0.4.0"
	Release = "kestrel"
)

const bannerArt = `
  ___  ___ _ __  _ __ ___ _   _
 / _ \/ __| '_ \| '__/ _ \ | | |
| (_) \__ \ |_) | | |  __/ |_| |
 \___/|___/ .__/|_|  \___|\__, |
          |_|             |___/`

// minBannerWidth is the narrowest terminal the full banner fits in.
const minBannerWidth = 40

// Banner prints the startup banner. Cosmetic only.
func Banner() {
	green := color.New(color.FgGreen)
	if w, err := terminal.Width(); err == nil && w < minBannerWidth {
		green.Println("osprey")
		return
	}
	green.Println(bannerArt)
	fmt.Println("        offensive security assessment framework")
	fmt.Println()
}
