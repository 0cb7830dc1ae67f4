package cmd

import (
	"github.com/spf13/cobra"

	"github.com/clavelab/genehood/internal/genehood"
)

// summarizeCmd pivots a neighborhood table into per-genome and per-gene
// summary reports.
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Pivot a neighborhood table into genome- and gene-centric reports",
	Long: `Read the CSV written by "genehood neighbors" and write two summaries:
one row per genome listing its unique neighbor genes, and one row per
neighbor gene listing the genomes it was found in.`,
	RunE: runSummarize,
}

// set flags
func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("in", "i", "", "Input neighborhood table <CSV>")
	summarizeCmd.Flags().String("genomes-out", "genomes_summary.csv", "Output file for the genome-centric summary")
	summarizeCmd.Flags().String("genes-out", "genes_summary.csv", "Output file for the gene-centric summary")
	_ = summarizeCmd.MarkFlagRequired("in")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	in, err := cmd.Flags().GetString("in")
	if err != nil {
		return err
	}
	genomesOut, err := cmd.Flags().GetString("genomes-out")
	if err != nil {
		return err
	}
	genesOut, err := cmd.Flags().GetString("genes-out")
	if err != nil {
		return err
	}

	return genehood.Summarize(in, genomesOut, genesOut)
}
