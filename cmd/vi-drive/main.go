package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Debug      bool   `help:"Enable debug logging."`
	ConfigFile string `name:"config" short:"c" help:"Configuration file (YAML, TOML or JSON)." type:"path"`

	Play struct {
		Record string `help:"Record frames to this file; overrides telemetry.record." type:"path"`
	} `cmd:"" default:"1" help:"Drive the vehicle in the terminal."`

	Serve struct {
		Addr   string `help:"Listen address; overrides server.addr."`
		Record string `help:"Record frames to this file; overrides telemetry.record." type:"path"`
	} `cmd:"" help:"Run the simulation headless behind the websocket control surface."`

	Config struct{} `cmd:"" help:"Print the effective configuration as YAML."`

	Replay struct {
		File string `arg:"" type:"existingfile" help:"Recording to summarize."`
	} `cmd:"" help:"Summarize a telemetry recording."`

	Runs struct {
		Limit int `default:"10" help:"Number of runs to list."`
	} `cmd:"" help:"List recent runs from the run store."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("vi-drive"),
		kong.Description("Terminal vehicle driving simulation."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	var err error
	switch ctx.Command() {
	case "play":
		err = play()
	case "serve":
		err = serve()
	case "config":
		err = printConfig()
	case "replay <file>":
		err = replay(CLI.Replay.File)
	case "runs":
		err = listRuns(CLI.Runs.Limit)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}

	if err != nil {
		writeError(err)
		os.Exit(1)
	}
}
