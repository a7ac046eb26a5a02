package main

import (
	"io"
	"os"

	"github.com/okian/pulse/internal/smoke"
	"github.com/spf13/cobra"
)

const defaultGenerateRows = 500

var (
	generateRows   int
	generateSeed   uint64
	generateDirty  bool
	generateOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic employee feedback as CSV",
	Long: `Writes synthetic feedback rows using the default column names, ready
for pulse import-csv or the csv source driver.

Example:
  pulse generate --rows 2000 --dirty -o feedback.csv`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateRows, "rows", "n", defaultGenerateRows, "Number of rows")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "Random seed (0 = time based)")
	generateCmd.Flags().BoolVar(&generateDirty, "dirty", false, "Mix in missing, malformed and out-of-range values")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default stdout)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := initPlainLogging(); err != nil {
		return err
	}
	var w io.Writer = cmd.OutOrStdout()
	if generateOutput != "" {
		f, err := os.Create(generateOutput)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	_, err := smoke.Generate(cmd.Context(), smoke.GenerateConfig{
		Rows:  generateRows,
		Seed:  generateSeed,
		Dirty: generateDirty,
	}, w)
	return err
}
