// Package ui colors terminal output for the dv command.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// 256-color palette indexes.
const (
	colorAccent = 74
	colorMuted  = 245
	colorError  = 203
)

// BlankCell is shown for a day without a value.
const BlankCell = "-"

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

func RenderHeader(s string) string { return paint(colorAccent, s) }

func RenderError(s string) string { return paint(colorError, s) }

// RenderBlank returns the placeholder for an empty cell.
func RenderBlank() string { return paint(colorMuted, BlankCell) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Init turns color off when stdout should not receive escape codes.
func Init() {
	if !wantColor(os.Getenv, term.IsTerminal(int(os.Stdout.Fd()))) {
		ForceNoColor()
	}
}

// wantColor honors NO_COLOR (any value), CLICOLOR_FORCE=1 and CLICOLOR=0
// in that order, then falls back to whether the output is a terminal.
func wantColor(getenv func(string) string, tty bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1":
		return true
	case strings.TrimSpace(getenv("CLICOLOR")) == "0":
		return false
	}
	return tty
}
