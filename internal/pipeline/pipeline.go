// Package pipeline runs the load, clean, enrich, validate, aggregate and
// export stages for one input file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/salespipe/salespipe/internal/aggregator"
	"github.com/salespipe/salespipe/internal/cleaner"
	"github.com/salespipe/salespipe/internal/config"
	"github.com/salespipe/salespipe/internal/dataset"
	"github.com/salespipe/salespipe/internal/enricher"
	"github.com/salespipe/salespipe/internal/exporter"
	"github.com/salespipe/salespipe/internal/gitops"
	"github.com/salespipe/salespipe/internal/loader"
	"github.com/salespipe/salespipe/internal/logging"
	"github.com/salespipe/salespipe/internal/metrics"
	"github.com/salespipe/salespipe/internal/model"
	"github.com/salespipe/salespipe/internal/reference"
	"github.com/salespipe/salespipe/internal/runlog"
)

// ErrEmptyInbox is returned by RunInbox when there is nothing to process.
var ErrEmptyInbox = errors.New("no input files in inbox")

// Result describes one completed run.
type Result struct {
	RunID      string
	Input      string
	Records    []model.Transaction
	Report     *cleaner.Report
	Overall    model.Summary
	Summaries  []exporter.Summaries
	Outputs    []string
	CommitHash string
	Duration   time.Duration
}

// Pipeline runs inputs against one project configuration.
type Pipeline struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *loader.Registry
	now      func() time.Time
}

// New creates a Pipeline. A nil logger discards.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{cfg: cfg, log: logger, registry: loader.DefaultRegistry(), now: time.Now}
}

// Run processes input with a logger built from the config, writing to stderr.
func Run(ctx context.Context, cfg *config.Config, input string) (*Result, error) {
	return New(cfg, logging.New(cfg.Logging, os.Stderr)).Run(ctx, input)
}

// Run processes one input file. The run is recorded in the run log and the
// metrics textfile whether it succeeds or not.
func (p *Pipeline) Run(ctx context.Context, input string) (res *Result, err error) {
	res = &Result{RunID: runlog.NewRunID(), Input: input}
	log := p.log.With("run_id", res.RunID, "input", filepath.Base(input))
	start := p.now()
	defer func() {
		res.Duration = p.now().Sub(start)
		p.record(log, res, err)
	}()

	regions := p.regions(log)

	table, err := p.registry.Open(input)
	if err != nil {
		return res, fmt.Errorf("loading input: %w", err)
	}
	log.Info("loaded", "rows", len(table.Rows), "columns", len(table.Columns))
	if len(table.Ignored) > 0 {
		log.Debug("ignored columns", "columns", table.Ignored)
	}

	c := cleaner.New(cleaner.OptionsFromConfig(p.cfg.Cleaning, regions))
	records, report := c.Clean(table.Rows)
	res.Report = report

	enricher.Enrich(records)
	records = cleaner.FilterOutliers(records, p.cfg.Cleaning.OutlierIQR, report)
	res.Records = records
	log.Info("cleaned",
		"rows_in", report.RowsIn,
		"rows_out", report.RowsOut,
		"dropped", report.Dropped(),
		"units_imputed", report.UnitsImputed,
		"dates_imputed", report.DatesImputed,
		"mrp_imputed", report.MRPImputed,
		"regions_remapped", report.RegionsRemapped,
	)
	for _, is := range report.Issues {
		log.Debug("row dropped", "line", is.Line, "order_id", is.OrderID, "reason", is.Reason, "value", is.Value)
	}

	var checker dataset.RegionChecker
	if p.cfg.Cleaning.StrictRegions {
		checker = regions
	}
	if err := dataset.Check(records, checker); err != nil {
		return res, err
	}

	dims, err := aggregator.ParseDimensions(p.cfg.Output.Dimensions)
	if err != nil {
		return res, fmt.Errorf("output dimensions: %w", err)
	}
	res.Overall = aggregator.Overall(records)
	for _, d := range dims {
		groups := aggregator.GroupBy(records, d)
		if err := aggregator.Reconcile(groups, res.Overall); err != nil {
			return res, fmt.Errorf("reconciling %s: %w", d, err)
		}
		res.Summaries = append(res.Summaries, exporter.Summaries{Dimension: string(d), Rows: groups})
	}
	log.Info("aggregated",
		"transactions", res.Overall.Transactions,
		"revenue", res.Overall.Revenue.StringFixed(2),
		"profit", res.Overall.Profit.StringFixed(2),
		"dimensions", len(dims),
	)

	outDir := p.cfg.Path(p.cfg.Output.Dir)
	exp, err := exporter.New(outDir, p.cfg.Output.Formats, log)
	if err != nil {
		return res, err
	}
	res.Outputs, err = exp.Export(ctx, exporter.Bundle{Records: records, Summaries: res.Summaries})
	if err != nil {
		return res, fmt.Errorf("exporting: %w", err)
	}
	log.Info("exported", "dir", outDir, "files", len(res.Outputs))

	if p.cfg.Git.AutoCommit {
		res.CommitHash = p.commit(log, outDir, res)
	}
	return res, nil
}

// RunInbox processes every input file in the configured inbox, in name
// order. With archive set, each file is moved to processed/ after a
// successful run. Stops at the first failure.
func (p *Pipeline) RunInbox(ctx context.Context, archive bool) ([]*Result, error) {
	inbox := p.cfg.Path(p.cfg.Input.Inbox)
	files, err := p.registry.Scan(inbox)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w %s", ErrEmptyInbox, inbox)
	}

	var results []*Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Run(ctx, f.Path)
		if err != nil {
			return results, fmt.Errorf("%s: %w", f.Name, err)
		}
		results = append(results, res)
		if archive {
			if err := loader.MarkProcessed(inbox, f.Name); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// regions loads the reference table, falling back to the built-in one when
// the file is absent.
func (p *Pipeline) regions(log *slog.Logger) *reference.Service {
	path := p.cfg.Path(p.cfg.Cleaning.RegionsFile)
	if path == "" {
		return reference.NewService(reference.DefaultEntries())
	}
	svc, err := reference.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("region reference unreadable, using built-in table", "path", path, "error", err)
		}
		return reference.NewService(reference.DefaultEntries())
	}
	return svc
}

func (p *Pipeline) commit(log *slog.Logger, outDir string, res *Result) string {
	if !gitops.IsRepo(outDir) {
		log.Warn("auto_commit is on but output is not in a git repository", "dir", outDir)
		return ""
	}
	msg := fmt.Sprintf("run: %s (%d rows, revenue %s)",
		filepath.Base(res.Input), res.Overall.Transactions, res.Overall.Revenue.StringFixed(2))
	author := gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail}

	hash, err := gitops.CommitPaths(outDir, nil, msg, author)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
		log.Info("output unchanged, nothing to commit")
	case err != nil:
		log.Warn("committing output failed", "error", err)
	default:
		log.Info("committed output", "commit", hash)
	}
	return hash
}

// record appends the run to the run log and metrics textfile. Failures here
// are logged, never returned.
func (p *Pipeline) record(log *slog.Logger, res *Result, runErr error) {
	entry := runlog.Entry{
		Timestamp:  p.now(),
		RunID:      res.RunID,
		Input:      res.Input,
		Status:     runlog.StatusOK,
		Revenue:    res.Overall.Revenue,
		Profit:     res.Overall.Profit,
		Duration:   res.Duration,
		CommitHash: res.CommitHash,
	}
	dropped := map[string]int{}
	if res.Report != nil {
		entry.RowsRead = res.Report.RowsIn
		entry.RowsDropped = res.Report.Dropped()
		for reason, n := range res.Report.DroppedBy() {
			dropped[string(reason)] = n
		}
	}
	if runErr != nil {
		entry.Status = runlog.StatusFailed
		entry.Error = runErr.Error()
		log.Error("run failed", "error", runErr)
	} else {
		entry.RowsWritten = len(res.Records)
		log.Info("run finished", "duration", res.Duration)
	}

	if path := p.cfg.Path(p.cfg.Output.RunLog); path != "" {
		if err := runlog.Append(path, []runlog.Entry{entry}); err != nil {
			log.Warn("writing run log failed", "error", err)
		}
	}

	if path := p.cfg.Path(p.cfg.Metrics.Textfile); path != "" {
		run := metrics.Run{
			RowsRead:    entry.RowsRead,
			RowsWritten: entry.RowsWritten,
			Dropped:     dropped,
			Revenue:     res.Overall.Revenue.InexactFloat64(),
			Profit:      res.Overall.Profit.InexactFloat64(),
			Duration:    res.Duration,
			Success:     runErr == nil,
			Finished:    entry.Timestamp,
		}
		if err := metrics.WriteTextfile(path, run); err != nil {
			log.Warn("writing metrics failed", "error", err)
		}
	}
}
