package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"sagelink/internal/preflight"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const statusLabelWidth = 18

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderCheck(result preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	switch {
	case result.Passed:
	case result.Optional:
		label, color = "WARN", ansiYellow
	default:
		label, color = "ERROR", ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, result.Name+":", label, result.Detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}
