package model

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// VersionFlag prints the "version" kong variable and exits.
type VersionFlag bool

// IsBool implements the kong.BoolMapper interface.
func (v VersionFlag) IsBool() bool { return true }

// BeforeApply prints to the application's stdout so tests can capture it.
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Fprintln(app.Stdout, vars["version"])
	app.Exit(0)
	return nil
}
