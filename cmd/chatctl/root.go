package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatctl",
		Short:         "chatctl: inspect message classification and manage the chat database",
		Long:          "chatctl runs the classification pipeline of the chat engine offline and seeds a development database with a demo tenant.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newClassifyCmd(),
		newSeedCmd(),
	)

	return rootCmd
}
