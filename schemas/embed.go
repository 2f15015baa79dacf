// Package schemas embeds the JSON Schemas for the HTTP API payloads.
package schemas

import "embed"

// Schema file names.
const (
	ImagenRequest    = "imagen_request.schema.json"
	GenerationResult = "generation_result.schema.json"
)

// Files holds every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS
