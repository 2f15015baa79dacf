// Package rendering synthesizes the local placeholder poster returned when
// upstream image generation fails.
package rendering

import (
	_ "embed"
	"encoding/base64"
	"strings"
	"sync"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/dreambig/dreambig-sg/internal/catalog"
)

// Placeholder dimensions in pixels.
const (
	PlaceholderWidth  = 512
	PlaceholderHeight = 384
)

// maxActivityRunes is how much of the activity fits on the poster.
const maxActivityRunes = 50

// SVGDataURLPrefix starts every placeholder image URL.
const SVGDataURLPrefix = "data:image/svg+xml;base64,"

//go:embed placeholder.svg.tmpl
var placeholderSource string

var (
	placeholderOnce sync.Once
	placeholderTmpl *template.Template
	placeholderErr  error
)

// PlaceholderData is the text shown on a placeholder poster. Fields are
// escaped when rendered.
type PlaceholderData struct {
	Width, Height int
	Career        string
	CareerEmoji   string
	Location      string
	LocationEmoji string
	Activity      string
	Date          string
}

// NewPlaceholderData resolves display names and emoji for the selections.
func NewPlaceholderData(career, location, activity string, date time.Time) PlaceholderData {
	if strings.TrimSpace(career) == "" {
		career = "superhero"
	}
	loc, _ := catalog.LookupLocation(location)
	locationLabel := catalog.LocationDisplayName(location)
	if locationLabel == "" {
		locationLabel = loc.Label
	}

	return PlaceholderData{
		Width:         PlaceholderWidth,
		Height:        PlaceholderHeight,
		Career:        catalog.CareerDisplayName(career),
		CareerEmoji:   catalog.CareerEmoji(career),
		Location:      locationLabel,
		LocationEmoji: loc.Emoji,
		Activity:      clip(activity, maxActivityRunes),
		Date:          date.Format("1/2/2006"),
	}
}

// RenderPlaceholderSVG renders data as an SVG document.
func RenderPlaceholderSVG(data PlaceholderData) (string, error) {
	tmpl, err := placeholderTemplate()
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{
			Message: "failed to execute placeholder template",
			Cause:   err,
		}
	}
	return result.String(), nil
}

// PlaceholderPoster renders the placeholder for the selections and returns
// it as a base64 SVG data URI.
func PlaceholderPoster(career, location, activity string, date time.Time) (string, error) {
	svg, err := RenderPlaceholderSVG(NewPlaceholderData(career, location, activity, date))
	if err != nil {
		return "", err
	}
	return SVGDataURLPrefix + base64.StdEncoding.EncodeToString([]byte(svg)), nil
}

func placeholderTemplate() (*template.Template, error) {
	placeholderOnce.Do(func() {
		tmpl, err := template.New("placeholder").Funcs(template.FuncMap{
			"escape": EscapeXML,
		}).Parse(placeholderSource)
		if err != nil {
			placeholderErr = &TemplateError{Message: "failed to parse placeholder template", Cause: err}
			return
		}
		placeholderTmpl = tmpl
	})
	return placeholderTmpl, placeholderErr
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
