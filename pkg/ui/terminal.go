package ui

import (
	"fmt"
	"io"
	"os"
)

// ASCIILogo is printed at the start of an interactive run
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════╗
    ║   ___ ___   _  _  ___  _  _   ___ ___  _    _    ___   ║
    ║  |_ _/ __| | \| |/ _ \| \| | | __/ _ \| |  | |  / _ \  ║
    ║   | | (_ | | .' | (_) | .' | | _| (_) | |__| |_| (_) | ║
    ║  |___\___| |_|\_|\___/|_|\_| |_| \___/|____|____\___/  ║
    ║          WHO DOESN'T FOLLOW YOU BACK ON INSTAGRAM      ║
    ╚════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var out io.Writer = os.Stdout

// SetOutput redirects status output; io.Discard silences it
func SetOutput(w io.Writer) {
	out = w
}

// Output returns the current status writer
func Output() io.Writer {
	return out
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(out, Magenta(msg))
}

// PrintHint prints a remediation hint under an error
func PrintHint(hint string) {
	if hint == "" {
		return
	}
	fmt.Fprintf(out, "%s %s\n", Dim("hint:"), hint)
}
