// Package prompts turns poster selections into instructions for the image
// and vision models. Templates are stored as JSON files and embedded at
// compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	loadOnce  sync.Once
	templates map[string]map[string]string
	loadErr   error
)

// Get returns the template stored under key in the named embedded file
// (e.g. "imagen.json").
func Get(filename, key string) (string, error) {
	loadOnce.Do(loadAll)
	if loadErr != nil {
		return "", loadErr
	}

	file, ok := templates[filename]
	if !ok {
		return "", fmt.Errorf("prompt file %s not embedded", filename)
	}
	tmpl, ok := file[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get for templates the binary cannot run without.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format replaces {{.Key}} placeholders with values from data in a single
// pass, so placeholder-looking text inside a value stays as is. Placeholders
// with no value are left untouched.
func Format(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func loadAll() {
	names, err := fs.Glob(promptFiles, "*.json")
	if err != nil {
		loadErr = err
		return
	}

	parsed := make(map[string]map[string]string, len(names))
	for _, name := range names {
		raw, err := promptFiles.ReadFile(name)
		if err != nil {
			loadErr = fmt.Errorf("failed to read prompt file %s: %w", name, err)
			return
		}
		var file map[string]string
		if err := json.Unmarshal(raw, &file); err != nil {
			loadErr = fmt.Errorf("failed to parse prompt file %s: %w", name, err)
			return
		}
		parsed[name] = file
	}
	templates = parsed
}
