package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

var (
	levelColors = map[types.Level]*color.Color{
		types.LevelLog:   color.New(color.Reset),
		types.LevelInfo:  color.New(color.FgCyan),
		types.LevelWarn:  color.New(color.FgYellow),
		types.LevelError: color.New(color.FgRed),
	}
	dim     = color.New(color.Faint)
	success = color.New(color.FgGreen, color.Bold)
	prompt  = color.New(color.FgBlue, color.Bold)
)

// printRecord writes one console record, colored by level
func printRecord(w io.Writer, rec types.LogRecord) {
	c, ok := levelColors[rec.Level]
	if !ok {
		c = levelColors[types.LevelLog]
	}
	label := fmt.Sprintf("%-5s", strings.ToUpper(string(rec.Level)))
	fmt.Fprintf(w, "%s %s\n", dim.Sprint(rec.Timestamp), c.Sprint(label+" "+rec.Message))
}

func disableColor() {
	color.NoColor = true
}
