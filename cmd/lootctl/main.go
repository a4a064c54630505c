package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lootctl",
	Short: "Inspect the on-device loot tracker",
	Long: `lootctl reads and edits the same on-device storage as the tracker server.

Configuration comes from the environment or a .env file, see DB_PATH and
STORAGE_NAMESPACE.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
