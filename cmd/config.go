package cmd

import (
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader reading flag defaults from a YAML
// document. Keys may be written as the flag name (cache-ttl), in snake case
// (cache_ttl) or in camel case (cacheTtl). Flags that belong to a command
// may also be nested under a key named after it:
//
//	log-level: debug
//	serve:
//	  addr: ":9090"
//	  cache-ttl: 30m
//
// A nested value wins over a top-level one.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding YAML configuration")
	}

	var f kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if raw, ok := lookupFlag(section, flag.Name); ok {
					return raw, nil
				}
			}
		}
		if raw, ok := lookupFlag(values, flag.Name); ok {
			return raw, nil
		}
		return nil, nil
	}
	return f, nil
}

func lookupFlag(values map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_"), camelCase(name)} {
		if raw, ok := values[key]; ok && raw != nil {
			return raw, true
		}
	}
	return nil, false
}

func camelCase(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
