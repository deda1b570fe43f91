package main

import (
	"fmt"
	"os"

	"github.com/ignatij/logreport/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "logreport",
	Short: "Report recent API logs from Elasticsearch by email",
}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
