// Package cmd is for command line interactions with the genehood application
package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "genehood",
	Short: `Extract the gene neighborhood of marker sequences across annotated genomes.
Matches each query against every genome and reports the genes around its best hit`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// optional .env with GENEHOOD_* overrides; absence is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
