// Package schemas embeds the JSON Schemas for bulkgrade configuration files.
package schemas

import _ "embed"

// ConfigSchemaJSON is the schema for bulkgrade.yaml.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
