// Package cli contains the command line interface of asg.
//
// # Usage
//
//	asg <input> <output>            build, then watch and serve if configured
//	asg build <input> <output>      build once
//	asg check <input>               report unbalanced template delimiters
//	asg debug <input> <file>        dump the tokens and chunks of a template
//	asg repl <input>                evaluate template snippets interactively
//	asg version
//
// # Logging Options
//
//   - --log-level: Set minimum log level (debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-source: Include source location in log records
//
// # Profiling Options
//
//   - --profile: Write a cpu or mem profile of the run
//   - --profile-dir: Set profile output directory (default: working directory)
package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"asg/engine"
)

const (
	name        = "asg"
	description = "Awesome Static Generator: Lua templated static sites."
)

// CLI is the top-level command-line interface for asg.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Profile profileConfig `embed:"" group:"profile"`

	Version kong.VersionFlag `help:"Print version and exit." short:"v"`

	Serve Serve `cmd:"" default:"withargs" help:"Build the site, then watch and serve it when configured."`
	Build Build `cmd:""                    help:"Build the site once."`
	Check Check `cmd:""                    help:"Validate template delimiters."`
	Debug Debug `cmd:""                    help:"Dump the tokens and chunks of a template."`
	Repl  Repl  `cmd:""                    help:"Evaluate template snippets against a site."`
	Info  Info  `cmd:""                    help:"Print build information." name:"version"`
}

// Run executes the asg CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(name),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Profile.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				NoExpandSubcommands: true,
			}),
		kong.Vars{"version": engine.ReadBuildInfo().Version},
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	defer cli.Profile.start(ctx)()

	return ktx.Run()
}
