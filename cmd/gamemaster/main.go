// Package main is the entry point for the game-master engine
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gamemaster",
	Short: "Conversational tabletop-RPG game master",
	Long:  `gamemaster runs per-player tabletop-RPG sessions over a chat interface, combining deterministic dice mechanics with generated narrative.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
}
