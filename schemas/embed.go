// Package schemas embeds the JSON Schemas used to validate configuration files.
package schemas

import _ "embed"

// RunConfigSchema is the JSON Schema for config.yaml.
//
//go:embed run_config.schema.json
var RunConfigSchema []byte
