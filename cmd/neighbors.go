package cmd

import (
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clavelab/genehood/config"
	"github.com/clavelab/genehood/internal/genehood"
	"github.com/clavelab/genehood/logger"
)

// neighborsCmd runs the neighborhood extraction engine over every genome
// bundle under the annotation directory.
var neighborsCmd = &cobra.Command{
	Use:   "neighbors",
	Short: "Find the genes neighboring each query's best hit in every genome",
	Long: `Match each query sequence against every genome under the annotation
directory and report all annotated genes within the window around the best
hit as a single CSV table. A genome that fails to load or match is logged
and skipped; the batch only fails when no genome could be processed.`,
	RunE: runNeighbors,
}

// set flags
func init() {
	rootCmd.AddCommand(neighborsCmd)

	neighborsCmd.Flags().StringP("query", "q", "", "Input file with query marker sequences <FASTA>")
	neighborsCmd.Flags().StringP("annotations", "a", "", "Directory with one annotation bundle subdirectory per genome")
	neighborsCmd.Flags().StringP("out", "o", "", "Output file for the neighborhood table <CSV>")
	neighborsCmd.Flags().IntP("window", "w", 10000, "Window in bp to search up- and downstream of each hit")
	neighborsCmd.Flags().Float64P("identity", "p", 90, "Minimum percent identity for an acceptable hit")
	neighborsCmd.Flags().Float64P("coverage", "c", 80, "Minimum percent of the query an acceptable hit must cover")
	neighborsCmd.Flags().IntP("workers", "j", runtime.NumCPU(), "Number of genomes to process concurrently")
	neighborsCmd.Flags().Duration("timeout", 10*time.Minute, "Per-genome matching timeout")
	neighborsCmd.Flags().String("blastn", "blastn", "Path to the blastn executable")
	neighborsCmd.Flags().Bool("anchor", true, "Include the hit's own gene in its neighborhood with distance 0")
	neighborsCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	neighborsCmd.Flags().Bool("quiet", false, "Disable the progress bar")
}

// runNeighbors gathers settings, builds the run context and executes the
// engine. Validation failures abort before any genome is touched.
func runNeighbors(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("GENEHOOD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	conf, err := config.New(v)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	log, err := logger.New(conf.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, err = genehood.NewRunner(conf, log).Run(ctx)
	return err
}
