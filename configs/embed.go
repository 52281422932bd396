// Package configs provides embedded configuration templates for tangerine-watch.
//
// Templates are embedded at build time using Go's //go:embed directive, so
// they ship with every binary.
//
// The templates are used by:
//   - cmd/tangerine-watch/cmd/config.go "config init" for the user config
//   - cmd/tangerine-watch/cmd/config.go "config init --project" for .tangerine-watch.yaml
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/tangerine-watch/config.yaml)
//  3. Project config (.tangerine-watch.yaml)
//  4. Environment variables (TANGERINE_WATCH_*)
//
// Every value in the templates equals its default, so writing a template
// changes nothing until it is edited.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `tangerine-watch config init` at ~/.config/tangerine-watch/config.yaml
// Contains: output and logging preferences that apply to every root.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `tangerine-watch config init --project` at .tangerine-watch.yaml
// Contains: the watch root and timing for one project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
