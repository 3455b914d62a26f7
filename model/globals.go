package model

import "github.com/alecthomas/kong"

// Globals contains global flags for the CLI.
type Globals struct {
	Version  VersionFlag     `name:"version" help:"Print version information and quit"`
	Config   kong.ConfigFlag `name:"config" help:"YAML file supplying flag defaults"`
	LogLevel string          `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" env:"YTFEED_LOG_LEVEL"`
	JSONLogs bool            `name:"json-logs" help:"Emit JSON logs" env:"YTFEED_JSON_LOGS"`
}
