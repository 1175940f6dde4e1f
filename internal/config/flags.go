package config

import (
	"github.com/spf13/pflag"
)

// CLIOverrides holds the flags the CLI surface (cmd/muxctl) layers on top
// of whatever the global config document already set. Every field is a
// pointer-free value with its own "was this flag touched" tracking done
// by pflag.FlagSet.Changed, so a flag left unset never clobbers a value
// the global document provided (the same "defaults hold unless the flag
// was passed" discipline the teacher's negated-flag handling used).
type CLIOverrides struct {
	Verbose    bool
	ColorMode  string
	LogFile    string
	SearchDirs []string
	FailFast   bool
}

// RegisterPersistentFlags adds the ambient flags shared by every
// subcommand (run/check/plan) to fs, matching the teacher's grouping of
// display/utility flags into one registration function per concern.
func RegisterPersistentFlags(fs *pflag.FlagSet, o *CLIOverrides) {
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Verbose output")
	fs.StringVar(&o.ColorMode, "color", "", "Override global config color_mode: auto | always | never")
	fs.StringVarP(&o.LogFile, "log", "l", "", "Override global config log_file path")
	fs.StringArrayVar(&o.SearchDirs, "search-dir", nil, "Additional tool search directory (repeatable), searched before PATH")
	fs.BoolVar(&o.FailFast, "fail-fast", false, "Abort the batch on the first mission failure, overriding basic_config.fail_fast")
}

// Apply layers o onto cfg for every flag pflag reports as explicitly set,
// leaving the document's own values alone otherwise.
func (o *CLIOverrides) Apply(fs *pflag.FlagSet, cfg *GlobalConfig) error {
	if fs.Changed("verbose") {
		cfg.Verbose = o.Verbose
	}
	if fs.Changed("color") {
		mode := ColorMode(o.ColorMode)
		cfg.ColorMode = mode
	}
	if fs.Changed("log") {
		cfg.LogFile = o.LogFile
	}
	if fs.Changed("search-dir") {
		cfg.ToolSearchDirs = append(append([]string{}, o.SearchDirs...), cfg.ToolSearchDirs...)
	}
	return cfg.Validate()
}
