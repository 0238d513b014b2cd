package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/logger"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/qa"
	"github.com/dgallion1/docqa/internal/tui"
)

func main() {
	envName := flag.String("env", "", "environment name (overrides APP_ENV)")
	envFile := flag.String("config", ".env", "env file to load")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: studymate [-env local] [-config .env] <document>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*envName, *envFile, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "studymate: %v\n", err)
		os.Exit(1)
	}
}

func run(envName, envFile, path string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if envName != "" {
		cfg.Environment = envName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to a file so they do not draw over the terminal UI.
	log, err := logger.NewFile(cfg.Environment, cfg.LogLevel, os.Getenv("STUDYMATE_LOG"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	oracle, err := qa.New(cfg.Oracle, log)
	if err != nil {
		return fmt.Errorf("init oracle: %w", err)
	}
	defer oracle.Close()
	orch := pipeline.NewOrchestrator(oracle, pipeline.OptionsFromConfig(cfg, log))
	sess := orch.NewSession()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := orch.Load(context.Background(), sess, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	log.Info("document loaded",
		zap.String("session_id", snap.ID),
		zap.Int("pages", snap.Pages),
		zap.Int("words", snap.Words),
	)

	summary := fmt.Sprintf("%s: %d pages, %d words", snap.Filename, snap.Pages, snap.Words)
	if snap.Title != "" && snap.Title != snap.Filename {
		summary = fmt.Sprintf("%s (%s)", summary, snap.Title)
	}
	if !snap.HasText {
		summary += " - no text extracted"
	}

	m := tui.New(tui.ForSession(orch, sess), orch.Sizes(), summary)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
