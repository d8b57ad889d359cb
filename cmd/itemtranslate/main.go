package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/itemtranslate/internal/cli"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Load .env and the config file once flags are parsed
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile, flags.EnvFile)
	})

	if err := cli.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
