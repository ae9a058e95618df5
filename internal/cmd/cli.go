package cmd

import "github.com/alecthomas/kong"

// LogOptions configure the process logger before any command runs.
type LogOptions struct {
	Level string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"CXXGLUE_LOG_LEVEL"`
	File  string `help:"Also write the full log stream, down to trace, to a file" env:"CXXGLUE_LOG_FILE"`
}

// CLI is the kong root for the cxxglue binary.
type CLI struct {
	Log        LogOptions `embed:"" prefix:"log."`
	ConfigFile string     `name:"config" help:"Path to a config file (json/yaml/toml)" env:"CXXGLUE_CONFIG"`

	Build   Build            `cmd:"" help:"Run the glue pipeline on a unit dump: capture types, emit the C++ document, compile the static archive"`
	Emit    Emit             `cmd:"" help:"Run the capture pass and write the generated C++ document without compiling it"`
	Config  ConfigCommand    `cmd:"" help:"Configuration helpers"`
	Version kong.VersionFlag `help:"Print version and exit"`
}
