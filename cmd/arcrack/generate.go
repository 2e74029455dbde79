package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/arcrack/internal/config"
	"github.com/nao1215/arcrack/internal/contexthint"
	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/model"
)

// dateRangeOptimizer is implemented by modes that narrow their year
// range from the archive context.
type dateRangeOptimizer interface {
	OptimizeDateRange(gc model.GenerationContext)
}

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <mode> [archive]",
		Short: "Print the candidates of one attack mode",
		Long: `Generate prints the candidates one attack mode would try, one per line,
without testing them. The output can be piped into other tools.

Modes: social, learned, date, keyboard, dictionary, neural

Examples:
  # Preview the contextual candidates for an archive
  arcrack generate social backup_2019.zip --limit 50

  # Add keywords without an archive
  arcrack generate social -k rex -k garden`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGenerateCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of candidates to print")
	cmd.Flags().StringSliceP("keyword", "k", nil, "Extra context keyword (repeatable)")
	cmd.Flags().StringSlice("hint", nil, "Image whose EXIF metadata adds context (repeatable)")
	cmd.Flags().String("model", "", "Transition graph for the neural mode")
	cmd.Flags().String("neural-script", "", "Generator script for the neural mode")
	cmd.Flags().Int("min-length", config.DefaultMinLength, "Shortest dictionary candidate")
	cmd.Flags().Int("max-length", config.DefaultMaxLength, "Longest dictionary candidate")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])

	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error
	if cfg.MaxCandidatesPerMode, err = flags.GetInt("limit"); err != nil {
		return err
	}
	if cfg.Keywords, err = flags.GetStringSlice("keyword"); err != nil {
		return err
	}
	if cfg.HintImages, err = flags.GetStringSlice("hint"); err != nil {
		return err
	}
	if cfg.NeuralModelPath, err = flags.GetString("model"); err != nil {
		return err
	}
	if cfg.NeuralScript, err = flags.GetString("neural-script"); err != nil {
		return err
	}
	if cfg.MinLength, err = flags.GetInt("min-length"); err != nil {
		return err
	}
	if cfg.MaxLength, err = flags.GetInt("max-length"); err != nil {
		return err
	}
	if cfg.MaxCandidatesPerMode < 1 {
		return fmt.Errorf("limit must be positive, got %d", cfg.MaxCandidatesPerMode)
	}
	cfg.NeuralEnabled = name == generator.ModeNeural
	cfg.NeuralBudget = cfg.MaxCandidatesPerMode

	a, err := commandApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	gc := model.NewGenerationContext("")
	if len(args) > 1 {
		gc, err = contexthint.Build(cmd.Context(), args[1], contexthint.Options{
			Keywords: cfg.Keywords,
			Hints:    cfg.HintImages,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
	} else {
		gc.Keywords = cfg.Keywords
	}

	set, err := buildModes(cmd.Context(), cfg, a.patterns, a.logger, nil)
	if err != nil {
		return err
	}
	defer set.Close()

	mode, ok := set.find(name)
	if !ok {
		return fmt.Errorf("unknown or unavailable mode %q (available: %s)", name, strings.Join(set.names(), ", "))
	}
	if d, ok := mode.(dateRangeOptimizer); ok {
		d.OptimizeDateRange(gc)
	}
	mode.SetMaxVariants(cfg.MaxCandidatesPerMode)

	candidates, err := mode.Generate(cmd.Context(), gc)
	if err != nil {
		return fmt.Errorf("failed to generate %s candidates: %w", name, err)
	}
	if len(candidates) > cfg.MaxCandidatesPerMode {
		candidates = candidates[:cfg.MaxCandidatesPerMode]
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, c := range candidates {
		fmt.Fprintln(w, c)
	}
	return w.Flush()
}
