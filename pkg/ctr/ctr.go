// Package ctr wires ingestion, label resolution, aggregation and
// reporting into one pipeline over xlsx click/impression exports.
package ctr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/aggregate"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/classify"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/ingest"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/normalize"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/resolve"
)

// Input is one workbook to process, identified by name.
type Input struct {
	Name string
	Src  io.Reader
}

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID       string
	GeneratedAt time.Time

	Companies []aggregate.CompanyStat
	Totals    aggregate.CompanyStat
	Monthly   []aggregate.Monthly

	// Rows counts the data rows consumed across all files.
	Rows int

	// Resolved counts rows by resolution source.
	Resolved map[resolve.Source]int

	Warnings []string
}

// Processor runs the pipeline. One Processor holds one learned-mapping
// store; runs through it share and extend the same table.
type Processor struct {
	cfg    config.Config
	norm   *normalize.Normalizer
	store  mapstore.Store
	cls    classify.Classifier
	reader *ingest.Reader
	log    *slog.Logger
}

// New builds a processor over the given store and classifier.
func New(cfg config.Config, store mapstore.Store, cls classify.Classifier, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	// Configured noise tokens extend the defaults, never replace them.
	tokens := make([]string, 0, len(normalize.DefaultNoiseTokens)+len(cfg.NoiseTokens))
	tokens = append(tokens, normalize.DefaultNoiseTokens...)
	tokens = append(tokens, cfg.NoiseTokens...)
	norm := normalize.New(tokens)
	return &Processor{
		cfg:    cfg,
		norm:   norm,
		store:  store,
		cls:    cls,
		reader: ingest.NewReader(cfg.Columns, log),
		log:    log,
	}
}

// ProcessFiles runs the pipeline over workbook paths. Files that fail
// to parse are skipped with a warning; the run fails only when nothing
// was readable at all.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) (*RunResult, error) {
	files := make([]*ingest.File, 0, len(paths))
	var warnings []string
	for _, path := range paths {
		f, err := p.reader.ReadFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", path, err))
			p.log.Warn("workbook skipped", "path", path, "error", err)
			continue
		}
		files = append(files, f)
	}
	return p.processParsed(ctx, files, warnings)
}

// ProcessReaders runs the pipeline over in-memory workbooks, as the
// HTTP surface does for uploads.
func (p *Processor) ProcessReaders(ctx context.Context, inputs []Input) (*RunResult, error) {
	files := make([]*ingest.File, 0, len(inputs))
	var warnings []string
	for _, in := range inputs {
		f, err := p.reader.Read(in.Src, in.Name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", in.Name, err))
			p.log.Warn("workbook skipped", "file", in.Name, "error", err)
			continue
		}
		files = append(files, f)
	}
	return p.processParsed(ctx, files, warnings)
}

func (p *Processor) processParsed(ctx context.Context, files []*ingest.File, warnings []string) (*RunResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no readable workbooks", internalerr.ErrNoInput)
	}

	resolver := resolve.New(p.norm, p.store, p.cls, resolve.Options{
		Sentinel:   p.cfg.Sentinel,
		Indicators: p.cfg.Indicators,
		Logger:     p.log,
	})

	result := &RunResult{
		RunID:       ulid.Make().String(),
		GeneratedAt: time.Now().UTC(),
		Resolved:    make(map[resolve.Source]int),
		Warnings:    warnings,
	}

	var allRows []aggregate.Row
	for _, f := range files {
		result.Warnings = append(result.Warnings, f.Warnings...)

		fileRows := make([]aggregate.Row, 0, len(f.Rows))
		for _, row := range f.Rows {
			res := resolver.Resolve(ctx, row.Label)
			result.Resolved[res.Source]++
			fileRows = append(fileRows, aggregate.Row{
				Company:     res.Company,
				Impressions: row.Impressions,
				Clicks:      row.Clicks,
			})
		}
		result.Rows += len(fileRows)
		allRows = append(allRows, fileRows...)

		if len(fileRows) > 0 {
			result.Monthly = append(result.Monthly, aggregate.Rollup(f.Name, fileRows))
		}
	}

	result.Companies = aggregate.Aggregate(allRows)
	result.Totals = aggregate.Totals(result.Companies)

	// Learned mappings survive the run even when persistence hiccups;
	// the table is still intact in memory for subsequent runs.
	if err := p.store.Flush(ctx); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("persisting mappings: %v", err))
		p.log.Warn("mapping flush failed", "error", err)
	}

	p.log.Info("run complete",
		"run_id", result.RunID,
		"files", len(files),
		"rows", result.Rows,
		"companies", len(result.Companies),
		"warnings", len(result.Warnings))
	return result, nil
}

// ResolveLabel resolves a single label outside a full run, for
// interactive use. The learned mapping is persisted immediately.
func (p *Processor) ResolveLabel(ctx context.Context, label string) resolve.Resolution {
	resolver := resolve.New(p.norm, p.store, p.cls, resolve.Options{
		Sentinel:   p.cfg.Sentinel,
		Indicators: p.cfg.Indicators,
		Logger:     p.log,
	})
	res := resolver.Resolve(ctx, label)
	if err := p.store.Flush(ctx); err != nil {
		p.log.Warn("mapping flush failed", "error", err)
	}
	return res
}

// NewClassifier builds the default remote classifier for cfg.
func NewClassifier(cfg config.Config, log *slog.Logger) classify.Classifier {
	return classify.NewOpenAI(cfg.Classifier, log)
}
