// Package flagx picks selected flags out of a mixed argument list so that
// several independent parsers (config file, server flags, trustctl
// commands) can share os.Args.
package flagx

import (
	"flag"
	"os"
	"slices"
	"strings"
)

// occurrence is one flag with its value, or a single positional argument
// when name is empty.
type occurrence struct {
	name string
	args []string
}

// scan groups args into occurrences. A flag written as -f=v or --flag=v is
// self-contained; otherwise the next argument is its value unless it starts
// with '-'.
func scan(args []string) []occurrence {
	out := make([]occurrence, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case !strings.HasPrefix(arg, "-"):
			out = append(out, occurrence{args: args[i : i+1]})
		case strings.Contains(arg, "="):
			name, _, _ := strings.Cut(arg, "=")
			out = append(out, occurrence{name: name, args: args[i : i+1]})
		default:
			end := i + 1
			if end < len(args) && !strings.HasPrefix(args[end], "-") {
				end++
			}
			out = append(out, occurrence{name: arg, args: args[i:end]})
			i = end - 1
		}
	}
	return out
}

// FilterArgs keeps the occurrences of allowedFlags in args, values included,
// in their original order. Names are matched with their dashes ("-c" and
// "--config" are different flags). The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	filtered := make([]string, 0, len(args))
	for _, o := range scan(args) {
		if o.name != "" && slices.Contains(allowedFlags, o.name) {
			filtered = append(filtered, o.args...)
		}
	}
	return filtered
}

// Positional returns what is left of args once every flag and its value is
// removed.
func Positional(args []string) []string {
	out := make([]string, 0, len(args))
	for _, o := range scan(args) {
		if o.name == "" {
			out = append(out, o.args...)
		}
	}
	return out
}

// ConfigPath extracts the config file path given via -c or -config in args.
// When both appear the last one wins. It returns "" if neither is present.
func ConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

// JsonConfigFlags is ConfigPath applied to os.Args.
func JsonConfigFlags() string {
	return ConfigPath(os.Args[1:])
}
