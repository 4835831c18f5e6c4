package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the terrain room server"`
	Monitor MonitorCmd       `cmd:"" help:"Attach a read-only spectator TUI to a running room"`
	Admin   AdminCmd         `cmd:"" help:"Attach an operator REPL to a running room"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("meridian"),
		kong.Description("Deterministic terrain generation and authoritative room server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
