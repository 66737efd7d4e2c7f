package cmd

import (
	"log"

	"github.com/CheesyGamer77/PrisonWarden/prisonwarden"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Starts the PrisonWarden bot and (optionally) the status API",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		warden, err := prisonwarden.New(cfg)
		if err != nil {
			log.Fatalf("error creating prisonwarden: %s", err.Error())
		}

		if err = warden.Run(ctx); err != nil {
			log.Fatalf("error running prisonwarden: %s", err.Error())
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
