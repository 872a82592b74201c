// Package flagx lets several independent parsers share one command line.
//
// Each config stage (JSON path lookup, per-field flags) only sees the flags
// it declares, so an unknown flag meant for another stage never aborts it.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags named in allowed, with their values.
// Names are given without dashes; both "-name" and "--name" spellings match,
// in either the "-name value" or the "-name=value" form.
func FilterArgs(args []string, allowed ...string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		names[strings.TrimLeft(n, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if _, ok := names[name]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if hasValue {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the JSON config file given with -c or -config, or ""
// when neither is present. With both, the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, "c", "config"))

	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
