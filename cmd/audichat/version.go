package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show audichat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("audichat %s\n", Version)
	},
}
