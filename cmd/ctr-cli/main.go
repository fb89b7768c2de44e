package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore/sqlite"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/report"
)

func main() {
	var (
		inPath       = flag.String("in", "", "Input .xlsx file or directory of .xlsx files")
		outPath      = flag.String("out", "ctr_report.xlsx", "Output report path")
		configPath   = flag.String("config", "", "YAML config file (optional)")
		mappingsPath = flag.String("mappings", "", "Learned mappings JSON file (overrides config)")
		dbPath       = flag.String("db", "", "SQLite mappings database (overrides -mappings)")
		label        = flag.String("label", "", "Resolve a single label and exit")
		verbose      = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *mappingsPath != "" {
		cfg.MappingsPath = *mappingsPath
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg, *dbPath, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	proc := ctr.New(cfg, store, ctr.NewClassifier(cfg, logger), logger)

	// One-shot label mode
	if *label != "" {
		res := proc.ResolveLabel(ctx, *label)
		fmt.Printf("%s  (%s)\n", res.Company, res.Source)
		return
	}

	// Batch mode
	if *inPath != "" {
		paths, err := collectInputs(*inPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := runBatch(ctx, proc, paths, *outPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Interactive mode
	fmt.Println("CTR label resolver")
	fmt.Println("Type a label (Ctrl+D to exit):")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res := proc.ResolveLabel(ctx, line)
		fmt.Printf("%s  (%s)\n", res.Company, res.Source)
	}
	fmt.Println()
}

func openStore(ctx context.Context, cfg config.Config, dbPath string, logger *slog.Logger) (mapstore.Store, error) {
	if dbPath != "" {
		return sqlite.Open(ctx, dbPath)
	}
	return mapstore.OpenFile(cfg.MappingsPath, logger), nil
}

// collectInputs expands a directory into its .xlsx files; a plain path
// passes through. Temporary office lock files (~$...) are skipped.
func collectInputs(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{in}, nil
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			paths = append(paths, filepath.Join(in, name))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .xlsx files in %s", in)
	}
	return paths, nil
}

func runBatch(ctx context.Context, proc *ctr.Processor, paths []string, outPath string) error {
	result, err := proc.ProcessFiles(ctx, paths)
	if err != nil {
		return err
	}

	if err := report.SaveAs(outPath, result.Companies, result.Monthly); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Printf("Run %s: %d rows across %d files\n", result.RunID, result.Rows, len(result.Monthly))
	for _, st := range result.Companies {
		ctrCol := "n/a"
		if st.CTRValid {
			ctrCol = fmt.Sprintf("%.4f", st.CTR)
		}
		fmt.Printf("  %-30s %12d %10d  %s\n", st.Company, st.Impressions, st.Clicks, ctrCol)
	}
	total := result.Totals
	fmt.Printf("  %-30s %12d %10d\n", total.Company, total.Impressions, total.Clicks)

	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}
	fmt.Println("Report written to", outPath)
	return nil
}
