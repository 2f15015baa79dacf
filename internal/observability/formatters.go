// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/imagen"
	"github.com/dreambig/dreambig-sg/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// dataURLPreview is how much of an image data URL is shown
	dataURLPreview = 40
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(clip(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPrompt outputs a composed prompt, wrapped to the box width.
func (p *Printer) PrintPrompt(variant types.ModelVariant, model, prompt string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Variant:  %s\n", variant))
	if model != "" {
		sb.WriteString(fmt.Sprintf("Model:    %s\n", model))
	}
	sb.WriteString(fmt.Sprintf("Length:   %d characters\n\n", utf8.RuneCountInString(prompt)))
	sb.WriteString(wrap(prompt, boxWidth-4))

	p.printBox("COMPOSED PROMPT", sb.String())
}

// PrintResult outputs a summary of a generation result.
func (p *Printer) PrintResult(result *types.GenerationResult) {
	if result == nil {
		return
	}
	m := result.Metadata

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Request:  %s\n", m.RequestID))
	sb.WriteString(fmt.Sprintf("Model:    %s\n", m.ModelUsed))
	sb.WriteString(fmt.Sprintf("Aspect:   %s\n", m.AspectRatio))
	if m.AgeBracket != "" {
		sb.WriteString(fmt.Sprintf("Age:      %s\n", m.AgeBracket))
	}
	sb.WriteString(fmt.Sprintf("Image:    %s\n", clip(result.ImageURL, dataURLPreview)))

	title := "POSTER GENERATED"
	if m.Fallback {
		title = "PLACEHOLDER POSTER"
		sb.WriteString("\nUpstream error:\n")
		sb.WriteString(wrap(m.APIError, boxWidth-6))
	} else if m.SubjectDescription != "" {
		sb.WriteString("\nSubject:\n")
		sb.WriteString(wrap(m.SubjectDescription, boxWidth-6))
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress outputs a one-line progress update.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event imagen.ProgressEvent) {
	fmt.Fprintf(p.out, "  • [%s] %s\n", event.Step, event.Message)
}

// PrintLocations outputs the poster backgrounds.
func (p *Printer) PrintLocations(locations []catalog.Location) {
	var sb strings.Builder
	for _, loc := range locations {
		sb.WriteString(fmt.Sprintf("%s %-20s %s\n", loc.Emoji, loc.Value, loc.Label))
	}
	p.printBox(fmt.Sprintf("LOCATIONS (%d)", len(locations)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCareers outputs careers grouped in catalog order. Only the first
// maxItemsToShow are listed unless all is set.
func (p *Printer) PrintCareers(careers []catalog.Career, all bool) {
	if len(careers) == 0 {
		p.printBox("CAREERS", "No matching careers")
		return
	}

	count := len(careers)
	if !all {
		count = min(count, maxItemsToShow)
	}

	var sb strings.Builder
	for _, c := range careers[:count] {
		sb.WriteString(fmt.Sprintf("%s %-22s %s\n", c.Emoji, c.Value, c.Category))
	}
	if count < len(careers) {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(careers)-count))
	}
	p.printBox(fmt.Sprintf("CAREERS (%d)", len(careers)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMissions outputs the mission builder options.
func (p *Printer) PrintMissions(missions catalog.MissionOptions) {
	var sb strings.Builder
	writeOptions := func(name string, options []catalog.MissionOption) {
		ids := make([]string, 0, len(options))
		for _, o := range options {
			ids = append(ids, o.ID)
		}
		sb.WriteString(name + ":\n")
		sb.WriteString(wrap(strings.Join(ids, ", "), boxWidth-6))
		sb.WriteString("\n")
	}
	writeOptions("I will", missions.Actions)
	writeOptions("my", missions.Who)
	writeOptions("with", missions.Powers)

	p.printBox("MISSION BUILDER", strings.TrimSuffix(sb.String(), "\n"))
}

// clip shortens s to n runes, ending in "..." when cut.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func pad(s string, n int) string {
	if gap := n - utf8.RuneCountInString(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// wrap breaks text into lines of at most width runes on word boundaries,
// keeping existing line breaks.
func wrap(text string, width int) string {
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width {
				out = append(out, line)
				line = word
				continue
			}
			line += " " + word
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
