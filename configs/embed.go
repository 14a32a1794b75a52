// Package configs embeds the configuration template written by
// `ragcore init`.
//
// The template mirrors the defaults in internal/config NewConfig(); edit
// both together.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented .ragcore.yaml written by init.
//
//go:embed ragcore.example.yaml
var ProjectConfigTemplate string
