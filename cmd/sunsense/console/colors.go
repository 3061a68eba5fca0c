package console

import "github.com/fatih/color"

// Available ANSI colors; all respect NO_COLOR and non-tty output
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
)
