package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/medimanage/internal/cli"
	"github.com/idilsaglam/medimanage/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "path to config.yaml")
	theme := flag.String("theme", "", "classic | neon | mono (overrides config)")
	noColor := flag.Bool("no-color", false, "never color output")
	forceColor := flag.Bool("force-color", false, "color output even when not a terminal")
	flag.Parse()

	ui.SetColorForcing(*forceColor, *noColor)

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		ConfigPath: *configPath,
		Theme:      *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
