package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"chorus/internal/logger"
	"chorus/internal/orchestrator"
	"chorus/internal/pkg/jsonutil"
	"chorus/internal/provider"
	"chorus/internal/reporter"

	"github.com/spf13/cobra"
)

var (
	runPrompt     string
	runPromptFile string
	runModels     []string
	runTimeoutMs  int
	runMaxRetries int
	runOutput     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one orchestration and print the summary as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		prompt, err := resolvePrompt()
		if err != nil {
			return err
		}
		registry := provider.NewRegistry(cfg.Models)
		models := runModels
		if len(models) == 0 {
			models = registry.IDs()
		}
		if len(models) == 0 {
			return fmt.Errorf("no models requested and none enabled in config")
		}
		if runTimeoutMs > 0 && cfg.Orchestrate.MaxTimeoutMs > 0 && runTimeoutMs > cfg.Orchestrate.MaxTimeoutMs {
			return fmt.Errorf("--timeout-ms %d exceeds configured maximum %d", runTimeoutMs, cfg.Orchestrate.MaxTimeoutMs)
		}

		engine := orchestrator.New(registry, orchestrator.Options{
			Timeout:     cfg.Orchestrate.Timeout(),
			MaxRetries:  cfg.Orchestrate.MaxRetries,
			BaseBackoff: cfg.Orchestrate.BaseBackoff(),
			MaxBackoff:  cfg.Orchestrate.MaxBackoff(),
		})
		summary := engine.Run(context.Background(), orchestrator.Request{
			Prompt:     prompt,
			Models:     models,
			Timeout:    time.Duration(runTimeoutMs) * time.Millisecond,
			MaxRetries: runMaxRetries,
		})
		reporter.New(cfg.Orchestrate.ReportDir).Report(summary)

		if err := writeSummary(summary); err != nil {
			return err
		}
		if !summary.OverallSuccess {
			// Partial success counts as success; only a clean sweep of
			// failures makes the command fail.
			return fmt.Errorf("all %d model(s) failed", summary.TotalModels)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPrompt, "prompt", "p", "", "prompt text")
	runCmd.Flags().StringVar(&runPromptFile, "prompt-file", "", "read the prompt from a file instead")
	runCmd.Flags().StringSliceVarP(&runModels, "models", "m", nil, "model ids to query (default: every enabled model)")
	runCmd.Flags().IntVar(&runTimeoutMs, "timeout-ms", 0, "per-attempt timeout override in milliseconds")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", -1, "retry budget override per model (0 = single attempt)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the summary JSON to a file instead of stdout")
}

func resolvePrompt() (string, error) {
	if runPromptFile != "" {
		buf, err := os.ReadFile(runPromptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt file failed: %w", err)
		}
		runPrompt = string(buf)
	}
	if strings.TrimSpace(runPrompt) == "" {
		return "", fmt.Errorf("prompt must not be empty (use --prompt or --prompt-file)")
	}
	return runPrompt, nil
}

func writeSummary(summary orchestrator.Summary) error {
	buf, err := jsonutil.MarshalPretty(summary)
	if err != nil {
		return err
	}
	if runOutput == "" {
		fmt.Print(string(buf))
		return nil
	}
	if err := os.WriteFile(runOutput, buf, 0o644); err != nil {
		return fmt.Errorf("writing summary failed: %w", err)
	}
	logger.Infof("summary written: %s", runOutput)
	return nil
}
