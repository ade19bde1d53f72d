package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// palette holds the REPL styles for one output
type palette struct {
	highlight termenv.Style
	err       termenv.Style
	success   termenv.Style
	dim       termenv.Style
	bold      termenv.Style
	user      termenv.Style
	assistant termenv.Style
}

// newPalette picks colors based on the terminal background. Outputs that
// are not terminals get the Ascii profile and render unstyled.
func newPalette(output *termenv.Output) palette {
	if output.HasDarkBackground() {
		return palette{
			highlight: output.String().Foreground(output.Color("179")).Bold(),
			err:       output.String().Foreground(output.Color("124")),
			success:   output.String().Foreground(output.Color("65")),
			dim:       output.String().Faint(),
			bold:      output.String().Bold(),
			user:      output.String().Foreground(output.Color("32")).Bold(),
			assistant: output.String().Foreground(output.Color("141")),
		}
	}
	return palette{
		highlight: output.String().Foreground(output.Color("136")).Bold(),
		err:       output.String().Foreground(output.Color("160")),
		success:   output.String().Foreground(output.Color("28")),
		dim:       output.String().Foreground(output.Color("240")),
		bold:      output.String().Bold(),
		user:      output.String().Foreground(output.Color("26")).Bold(),
		assistant: output.String().Foreground(output.Color("90")),
	}
}

// isTerminal checks if output is going to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// hasStdinData checks if stdin is piped
func hasStdinData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readAll reads every line from r and joins them with newlines
func readAll(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}
