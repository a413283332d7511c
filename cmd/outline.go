package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/outline"
	"github.com/abhisek/tutorly/internal/tutor"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Browse and generate chapter outlines",
}

func selectionArgs(args []string) tutor.Selection {
	sel := tutor.Selection{Board: args[0], Subject: args[1], Chapter: args[2]}
	if len(args) > 3 {
		sel.Topic = args[3]
	}
	return sel
}

func loadCatalog(cmd *cobra.Command) (*outline.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c := outline.NewCatalog(cfg.OutlineDir)
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load outlines from %s: %w", cfg.OutlineDir, err)
	}
	return c, nil
}

var outlineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outlines in the outline directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		entries := c.List()
		if len(entries) == 0 {
			fmt.Println("No outlines found in", c.Dir())
			return nil
		}

		fmt.Printf("%-10s  %-14s  %-20s  %-14s  %6s  %s\n", "Board", "Subject", "Chapter", "Topic", "Topics", "File")
		fmt.Println(strings.Repeat("─", 96))
		for _, e := range entries {
			fmt.Printf("%-10s  %-14s  %-20s  %-14s  %6d  %s\n",
				truncate(e.Selection.Board, 10),
				truncate(e.Selection.Subject, 14),
				truncate(e.Selection.Chapter, 20),
				truncate(e.Selection.Topic, 14),
				e.Outline.TopicCount(),
				filepath.Base(e.Path),
			)
		}
		return nil
	},
}

var outlineShowCmd = &cobra.Command{
	Use:   "show <board> <subject> <chapter> [topic]",
	Short: "Print a catalog outline as YAML",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		sel := selectionArgs(args)
		o, err := c.Outline(context.Background(), sel)
		if errors.Is(err, outline.ErrNotFound) {
			return fmt.Errorf("no outline for %s/%s/%s in %s", sel.Board, sel.Subject, sel.Chapter, c.Dir())
		}
		if err != nil {
			return err
		}
		data, err := outline.Encode(sel, o)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var outlineGenerateCmd = &cobra.Command{
	Use:   "generate <board> <subject> <chapter> [topic]",
	Short: "Ask the language model for an outline",
	Long: `Generate designs an outline with the configured language model and
prints it as a catalog file. With --save the file is written to the
outline directory, where sessions will pick it up instead of generating
a new outline each time.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		provider, err := llm.NewProviderFromEnv(ctx, s.EventRepo(), zap.NewNop())
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		sel := selectionArgs(args)
		sel.ChapterName, _ = cmd.Flags().GetString("name")
		gen := outline.NewGenerator(provider, outline.DefaultGeneratorConfig(), zap.NewNop())
		o, err := gen.Outline(ctx, sel)
		if err != nil {
			return fmt.Errorf("generate outline: %w", err)
		}
		data, err := outline.Encode(sel, o)
		if err != nil {
			return err
		}

		if !save {
			_, err = os.Stdout.Write(data)
			return err
		}
		name := strings.Join([]string{sel.Board, sel.Subject, sel.Chapter}, "-")
		if sel.Topic != "" {
			name += "-" + sel.Topic
		}
		path := filepath.Join(cfg.OutlineDir, strings.ToLower(name)+".yaml")
		if err := os.MkdirAll(cfg.OutlineDir, 0o755); err != nil {
			return fmt.Errorf("create outline dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write outline: %w", err)
		}
		fmt.Printf("Saved %d topics to %s\n", o.TopicCount(), path)
		return nil
	},
}

func init() {
	outlineGenerateCmd.Flags().Bool("save", false, "Write the outline into the outline directory")
	outlineGenerateCmd.Flags().String("name", "", "Display name of the chapter, used in the prompt")

	outlineCmd.AddCommand(outlineListCmd)
	outlineCmd.AddCommand(outlineShowCmd)
	outlineCmd.AddCommand(outlineGenerateCmd)
}
