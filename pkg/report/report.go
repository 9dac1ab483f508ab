// Package report turns the crew's final output into the files a run leaves
// behind: the markdown report and the chart image.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// FileWriteError reports an output file that could not be written.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

var blankRuns = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// FormatResult normalises the final crew output for display and saving:
// line endings become \n, trailing spaces are dropped, runs of blank lines
// collapse to one and the text ends with exactly one newline.
func FormatResult(result string) string {
	text := strings.ReplaceAll(result, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return text + "\n"
}

// PrettyPrint writes text to w, highlighting markdown headings, list bullets
// and rules. Colour is dropped automatically when w is not a terminal.
func PrettyPrint(w io.Writer, text string) error {
	heading := color.New(color.FgCyan, color.Bold)
	subheading := color.New(color.FgGreen, color.Bold)
	bullet := color.New(color.FgYellow)
	rule := color.New(color.FgHiBlack)

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		var err error
		switch {
		case strings.HasPrefix(trimmed, "# "):
			_, err = heading.Fprintln(w, line)
		case strings.HasPrefix(trimmed, "#"):
			_, err = subheading.Fprintln(w, line)
		case trimmed == "---" || trimmed == "***":
			_, err = rule.Fprintln(w, strings.Repeat("─", 60))
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			if _, err = fmt.Fprint(w, indent); err == nil {
				if _, err = bullet.Fprint(w, "•"); err == nil {
					_, err = fmt.Fprintln(w, " "+trimmed[2:])
				}
			}
		default:
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveReport writes text to path, replacing any previous content.
func SaveReport(text, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

// writeFile creates or truncates path, hands it to fill and closes it on
// every path. The first failure is returned as a *FileWriteError.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	if strings.TrimSpace(path) == "" {
		return &FileWriteError{Path: path, Err: errors.New("empty path")}
	}
	f, err := os.Create(path)
	if err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &FileWriteError{Path: path, Err: cerr}
		}
	}()
	if err := fill(f); err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	return nil
}
