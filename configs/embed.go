// Package configs provides embedded configuration files for ayatsearch.
//
// Files are embedded at build time with //go:embed so that every
// distribution (source build, binary release) carries the same defaults.
//
// The files are used by:
//   - internal/normalize DefaultRuleSet(): normalization.yaml
//   - cmd/ayatsearch/cmd/config.go `config init`: the two config templates
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/ayatsearch/config.yaml)
//  3. Project config (.ayatsearch.yaml)
//  4. Environment variables (AYATSEARCH_*)
package configs

import _ "embed"

// NormalizationRules holds the default rewrite rules and spoken letter names
// applied by the text normalizer.
//
//go:embed normalization.yaml
var NormalizationRules string

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `ayatsearch config init --user` at ~/.config/ayatsearch/config.yaml
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `ayatsearch config init` at .ayatsearch.yaml in the working directory.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
