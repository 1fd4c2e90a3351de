package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge/cmd/cli/commands"
)

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "ReelForge CLI - A command line interface for the ReelForge API",
	Long:  `ReelForge CLI is a command line tool for inspecting and operating video generation jobs through the ReelForge API.`,
}

func init() {
	rootCmd.AddCommand(commands.GetJobsCmd())
	rootCmd.AddCommand(commands.GetApprovalsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
