package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/vfszip/internal/filesystem"
	"github.com/dustin/go-humanize"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for the title of a successful report.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	// failedTitleStyle defines the style for the title of a failed report.
	failedTitleStyle = titleStyle.
				Background(lipgloss.Color("#D9534F"))

	// borderStyle defines the style for the borders of a report.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	// keyStyle defines the style for the keys of a report.
	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	// infoStyle defines the style for the values of a report.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))
)

// Field is a single line of a [Report].
type Field struct {
	Key   string
	Value string
}

// Report is the summary of a finished operation, as printed to a terminal.
type Report struct {
	Title  string
	Failed bool
	Fields []Field
}

// NewReport returns a pointer to a new [Report].
func NewReport(title string) *Report {
	return &Report{Title: title}
}

// Add appends a field with a value formatted as by [fmt.Sprint].
func (r *Report) Add(key string, value any) *Report {
	r.Fields = append(r.Fields, Field{Key: key, Value: fmt.Sprint(value)})

	return r
}

// AddBytes appends a field with a human readable size.
func (r *Report) AddBytes(key string, n int64) *Report {
	if n < 0 {
		n = 0
	}

	return r.Add(key, humanize.IBytes(uint64(n)))
}

// AddList appends one field per element, or a single "none" field.
func (r *Report) AddList(key string, values []string) *Report {
	if len(values) == 0 {
		return r.Add(key, "none")
	}

	for _, value := range values {
		r.Add(key, value)
	}

	return r
}

// AddError marks the report as failed and appends the error, with joined
// errors split into one field each.
func (r *Report) AddError(err error) *Report {
	if err == nil {
		return r
	}
	r.Failed = true

	for _, line := range strings.Split(err.Error(), "\n") {
		r.Add("error", line)
	}

	return r
}

// AddResult appends the counters of a tree operation and its failures.
func (r *Report) AddResult(res filesystem.Result) *Report {
	r.Add("succeeded", res.Succeeded)
	r.Add("filtered", res.Filtered)
	r.Add("failed", res.Failed)

	return r.AddError(res.Err())
}

// Render returns the report as bordered block for a terminal.
func (r *Report) Render() string {
	title := titleStyle.Render(r.Title)
	if r.Failed {
		title = failedTitleStyle.Render(r.Title)
	}

	width := 0
	for _, field := range r.Fields {
		width = max(width, lipgloss.Width(field.Key))
	}

	lines := make([]string, 0, len(r.Fields)+1)
	lines = append(lines, title)

	for _, field := range r.Fields {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			keyStyle.Width(width+2).Render(field.Key+":"),
			infoStyle.Render(field.Value),
		))
	}

	return borderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
