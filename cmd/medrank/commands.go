package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/medrank/tracker/internal/dashboard"
	"github.com/medrank/tracker/internal/export"
	"github.com/medrank/tracker/internal/llm"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
	"github.com/medrank/tracker/internal/store"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the score grid as an Excel workbook",
		RunE:  runExport,
	}
	storageFlags(cmd)
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (- for stdout, empty for the default file name)")
	f.StringP("category", "c", string(model.CategoryAll), "Category filter (ALL or a rank category)")
	return cmd
}

func scoreboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoreboard",
		Short: "Print the score grid with band colors",
		RunE:  runScoreboard,
	}
	storageFlags(cmd)
	cmd.Flags().StringP("category", "c", string(model.CategoryAll), "Category filter (ALL or a rank category)")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded grand tests",
		RunE:  runList,
	}
	storageFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge tests from a JSON file into storage",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	storageFlags(cmd)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the AI coach to analyze the latest test",
		RunE:  runAnalyze,
	}
	storageFlags(cmd)
	llmFlags(cmd)
	cmd.Flags().Duration("timeout", 2*time.Minute, "Maximum time to wait for the analysis")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func categoryFilter(v *viper.Viper) (model.Category, error) {
	filter, err := model.ParseCategory(v.GetString("category"))
	if err != nil {
		return "", fmt.Errorf("invalid --category: %w", err)
	}
	return filter, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	filter, err := categoryFilter(v)
	if err != nil {
		return err
	}
	ctrl, cleanup, err := newController(ctx, v, false)
	if err != nil {
		return err
	}
	defer cleanup()

	tests := ctrl.Tests()
	if len(tests) == 0 {
		return errors.New("no data to export")
	}

	outPath := v.GetString("output")
	if outPath == "" {
		outPath = export.Filename(tests, filter, time.Now())
	}
	var w io.Writer
	if outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, tests, filter); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if outPath != "-" {
		slog.Info("exported scores", "path", outPath, "tests", len(tests), "category", filter)
	}
	return nil
}

func runScoreboard(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	filter, err := categoryFilter(v)
	if err != nil {
		return err
	}
	ctrl, cleanup, err := newController(ctx, v, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return dashboard.Scoreboard(os.Stdout, dashboard.Build(ctrl.Tests(), filter))
}

func runList(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	ctrl, cleanup, err := newController(ctx, v, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return writeTestList(os.Stdout, ctrl.Tests())
}

// writeTestList prints one line per test with its overall percentage.
func writeTestList(w io.Writer, tests []model.GrandTest) error {
	if len(tests) == 0 {
		_, err := fmt.Fprintln(w, "No tests recorded.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "ID", "Name", "Date", "Mode", "Overall"})
	for i, t := range tests {
		var obtained, total float64
		for _, sc := range t.Scores {
			obtained += sc.ObtainedMarks
			total += sc.TotalMarks
		}
		table.Append([]string{
			fmt.Sprint(i + 1),
			t.ID,
			t.Name,
			t.Date,
			t.Mode.Label(),
			fmt.Sprintf("%d%%", score.Percentage(obtained, total)),
		})
	}
	table.Render()
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := commandContext(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	tests, err := store.DecodeTests(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	ctrl, cleanup, err := newController(ctx, v, false)
	if err != nil {
		return err
	}
	defer cleanup()

	added, replaced, err := ctrl.Import(ctx, tests)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s: %d added, %d replaced.\n", args[0], added, replaced)
	return nil
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, cancel := context.WithTimeout(commandContext(cmd), v.GetDuration("timeout"))
	defer cancel()

	ctrl, cleanup, err := newController(ctx, v, true)
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := ctrl.Analyze(ctx)
	fmt.Println(text)
	if errors.Is(err, llm.ErrMissingKey) || errors.Is(err, llm.ErrNoTests) {
		return nil
	}
	return err
}
