// Package config reads kidpoints settings from a TOML file and feeds them to
// kong through a resolver. Flags given on the command line take precedence.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml/v2"
)

// TOML is a kong.ConfigurationLoader. Tables nest into dash-joined flag
// names and underscores become dashes, so
//
//	[backup.s3]
//	access_key = "..."
//
// resolves the --backup-s3-access-key flag. Flags that belong to a
// subcommand are looked up under the command's table first, so [serve]
// addr sets --addr on the serve command.
func TOML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	values := map[string]string{}
	flatten("", doc, values)

	return kong.ResolverFunc(func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if v, ok := values[parent.Command.Name+"-"+flag.Name]; ok {
				return v, nil
			}
		}
		v, ok := values[flag.Name]
		if !ok {
			return nil, nil
		}
		return v, nil
	}), nil
}

func flatten(prefix string, table map[string]any, out map[string]string) {
	for k, v := range table {
		name := strings.ReplaceAll(k, "_", "-")
		if prefix != "" {
			name = prefix + "-" + name
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(name, v, out)
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = scalar(item)
			}
			out[name] = strings.Join(parts, ",")
		default:
			out[name] = scalar(v)
		}
	}
}

func scalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
