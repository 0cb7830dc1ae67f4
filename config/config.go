// Package config is for run-wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config is the root-level settings struct, a mix of settings from the
// command line, GENEHOOD_* environment variables and an optional .env
// file. It is built once per run and handed to the engine explicitly;
// nothing reads it as ambient state.
type Config struct {
	// QueryPath is the multi-record query FASTA
	QueryPath string `mapstructure:"query"`

	// AnnotationDir holds one subdirectory per genome bundle
	AnnotationDir string `mapstructure:"annotations"`

	// OutputPath is the neighborhood CSV written once per run
	OutputPath string `mapstructure:"out"`

	// Window in bp, extended symmetrically around the hit interval
	Window int `mapstructure:"window"`

	// MinIdentity is the percent identity below which a candidate hit
	// is rejected
	MinIdentity float64 `mapstructure:"identity"`

	// MinCoverage is the minimum percent of the query length a candidate
	// alignment must span
	MinCoverage float64 `mapstructure:"coverage"`

	// Workers bounds the number of genomes processed concurrently
	Workers int `mapstructure:"workers"`

	// GenomeTimeout bounds one genome's matching step
	GenomeTimeout time.Duration `mapstructure:"timeout"`

	// BlastnPath is the blastn executable
	BlastnPath string `mapstructure:"blastn"`

	// IncludeAnchor keeps the hit's own feature in its neighborhood,
	// flagged with distance 0
	IncludeAnchor bool `mapstructure:"anchor"`

	// LogLevel is debug, info, warn or error
	LogLevel string `mapstructure:"log-level"`

	// Quiet disables the progress bar
	Quiet bool `mapstructure:"quiet"`
}

// SetDefaults registers every setting's default on a viper instance,
// before flags and env vars are layered on top.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("window", 10000)
	v.SetDefault("identity", 90.0)
	v.SetDefault("coverage", 80.0)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("timeout", 10*time.Minute)
	v.SetDefault("blastn", "blastn")
	v.SetDefault("anchor", true)
	v.SetDefault("log-level", "info")
	v.SetDefault("quiet", false)
}

// New returns a Config populated from a viper instance.
func New(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	return &c, nil
}

// Validate checks the run's settings before any genome is touched.
// A violation here is fatal: it aborts the run outright rather than being
// skipped-and-warned like a genome-level failure.
func (c *Config) Validate() error {
	if c.QueryPath == "" {
		return fmt.Errorf("a query FASTA is required [-q]")
	}
	if _, err := os.Stat(c.QueryPath); err != nil {
		return fmt.Errorf("failed to find query FASTA at %s: %w", c.QueryPath, err)
	}

	if c.AnnotationDir == "" {
		return fmt.Errorf("an annotation directory is required [-a]")
	}
	info, err := os.Stat(c.AnnotationDir)
	if err != nil {
		return fmt.Errorf("failed to find annotation directory at %s: %w", c.AnnotationDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.AnnotationDir)
	}

	if c.OutputPath == "" {
		return fmt.Errorf("an output path is required [-o]")
	}

	if c.Window < 0 {
		return fmt.Errorf("window must be non-negative, got %d", c.Window)
	}
	if c.MinIdentity < 0 || c.MinIdentity > 100 {
		return fmt.Errorf("identity must be within [0,100], got %.1f", c.MinIdentity)
	}
	if c.MinCoverage < 0 || c.MinCoverage > 100 {
		return fmt.Errorf("coverage must be within [0,100], got %.1f", c.MinCoverage)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.GenomeTimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.GenomeTimeout)
	}

	return nil
}
