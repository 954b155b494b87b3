package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"chorus/internal/config"
	"chorus/internal/logger"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "chorus",
	Short:        "Fan one prompt out to multiple AI model backends and collect every outcome",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the chorus version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

const version = "0.3.0"

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $CHORUS_CONFIG or configs/config.yaml)")
	rootCmd.AddCommand(runCmd, serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	if env := os.Getenv("CHORUS_CONFIG"); env != "" {
		return env
	}
	return "configs/config.yaml"
}

// setup loads config and initializes logging; every subcommand starts here.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config failed: %w", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing log file failed: %w", err)
	}
	dumpFile, err := setupDumpOutput(cfg)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, nil, fmt.Errorf("initializing payload dump failed: %w", err)
	}
	cleanup := func() {
		if dumpFile != nil {
			dumpFile.Close()
		}
		if logFile != nil {
			logFile.Close()
		}
	}
	logger.SetLevel(cfg.App.LogLevel)
	return cfg, cleanup, nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupDumpOutput(cfg *config.Config) (*os.File, error) {
	logger.SetDumpWriter(nil)
	if !cfg.App.DumpPayloads || strings.TrimSpace(cfg.App.DumpPath) == "" {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.App.DumpPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetDumpWriter(f)
	return f, nil
}
