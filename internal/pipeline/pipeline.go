// Package pipeline runs one ingestion batch end to end: discover
// source files, normalize rows, classify them, commit the batch, then
// archive the processed files.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/perfin-dev/perfin/internal/accounts"
	"github.com/perfin-dev/perfin/internal/classify"
	"github.com/perfin-dev/perfin/internal/config"
	"github.com/perfin-dev/perfin/internal/logger"
	"github.com/perfin-dev/perfin/internal/normalize"
	"github.com/perfin-dev/perfin/internal/rules"
	"github.com/perfin-dev/perfin/internal/source"
	"github.com/perfin-dev/perfin/internal/store"
)

// Options tunes one run.
type Options struct {
	// ExportDir, when set, writes the committed batch as a canonical
	// CSV alongside persisting it.
	ExportDir string
}

// Report summarizes one run for the caller.
type Report struct {
	RunID         string
	NoInput       bool // no source files found; the run was a no-op
	Files         []string
	RowsProcessed int
	RowsSkipped   []normalize.RowError
	RowsCommitted int
	Duplicates    int
	Earliest      time.Time
	Latest        time.Time
	ExportPath    string
	ArchiveErrors []string // best-effort failures, not a run failure
}

// Pipeline wires the ingestion stages together. Single-threaded and
// batch-oriented: one run processes one set of input files start to
// finish, with no overlapping runs against the same database.
type Pipeline struct {
	cfg      *config.Config
	accounts *accounts.Service
	store    *store.Store
	log      zerolog.Logger
	opts     Options
	now      func() time.Time
}

// New creates a Pipeline over the given configuration and store.
func New(cfg *config.Config, st *store.Store, log zerolog.Logger, opts Options) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		accounts: accounts.NewService(cfg.ModelAccounts(), cfg.Aliases),
		store:    st,
		log:      logger.WithComponent(log, "pipeline"),
		opts:     opts,
		now:      time.Now,
	}
}

// Run executes one batch. Schema mismatches and store failures abort
// the whole batch with nothing committed and source files untouched;
// row-level format errors only exclude the offending rows. Archiving
// happens strictly after a successful commit.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := p.log.With().Str("run_id", report.RunID).Logger()

	files, err := source.Scan(p.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn().Str("dir", p.cfg.InputDir).Msg("no input files found")
		report.NoInput = true
		return report, nil
	}
	for _, f := range files {
		report.Files = append(report.Files, f.Name)
	}
	log.Info().Int("files", len(files)).Msg("reading input files")

	rows, err := source.ReadFiles(files)
	if err != nil {
		return nil, err
	}
	report.RowsProcessed = len(rows)

	ruleSet, err := rules.Load(p.cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	imported := p.now().Truncate(24 * time.Hour)
	norm := normalize.New(p.accounts, log)
	txs, skipped := norm.Normalize(rows, imported)
	report.RowsSkipped = skipped

	if verrs := ValidateBatch(txs); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return nil, fmt.Errorf("batch validation failed: %s", strings.Join(msgs, "; "))
	}

	classifier := classify.New(ruleSet)
	for i := range txs {
		txs[i] = classify.Apply(txs[i], classifier.Classify(txs[i]))
	}

	res, err := p.store.CommitBatch(ctx, txs, ruleSet)
	if err != nil {
		// Nothing committed; the source files stay put for a retry.
		return nil, fmt.Errorf("persisting batch: %w", err)
	}
	report.RowsCommitted = res.Inserted
	report.Duplicates = res.Duplicates
	if len(txs) > 0 {
		report.Earliest = txs[0].Date
		report.Latest = txs[len(txs)-1].Date
		log.Info().
			Str("earliest", report.Earliest.Format("2006-01-02")).
			Str("latest", report.Latest.Format("2006-01-02")).
			Msg("transactions found for date range")
	}

	if p.opts.ExportDir != "" && len(txs) > 0 {
		path, err := Export(p.opts.ExportDir, txs)
		if err != nil {
			log.Warn().Err(err).Msg("export failed")
		} else {
			report.ExportPath = path
		}
	}

	p.archive(log, files, report)
	return report, nil
}

// archive moves processed files after the commit. Failures are logged
// and retried once; a file that still cannot move is reported but does
// not fail the run, since the committed data is already safe.
func (p *Pipeline) archive(log zerolog.Logger, files []source.FileInfo, report *Report) {
	for _, f := range files {
		err := source.Archive(p.cfg.ArchiveDir, f)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("archive failed, retrying")
			err = source.Archive(p.cfg.ArchiveDir, f)
		}
		if err != nil {
			log.Error().Err(err).Str("file", f.Name).Msg("archive failed")
			report.ArchiveErrors = append(report.ArchiveErrors, fmt.Sprintf("%s: %v", f.Name, err))
		}
	}
}

// Summarize renders the run report as user-facing text.
func (r *Report) Summarize() string {
	if r.NoInput {
		return "No input files found; nothing to do.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Files:          %s\n", strings.Join(r.Files, ", "))
	fmt.Fprintf(&b, "Rows processed: %d\n", r.RowsProcessed)
	fmt.Fprintf(&b, "Rows committed: %d\n", r.RowsCommitted)
	fmt.Fprintf(&b, "Duplicates:     %d\n", r.Duplicates)
	fmt.Fprintf(&b, "Rows skipped:   %d\n", len(r.RowsSkipped))
	for _, s := range r.RowsSkipped {
		fmt.Fprintf(&b, "  - %s\n", s.Error())
	}
	if !r.Earliest.IsZero() {
		fmt.Fprintf(&b, "Date range:     %s to %s\n",
			r.Earliest.Format("2006-01-02"), r.Latest.Format("2006-01-02"))
	}
	if r.ExportPath != "" {
		fmt.Fprintf(&b, "Exported to:    %s\n", r.ExportPath)
	}
	for _, a := range r.ArchiveErrors {
		fmt.Fprintf(&b, "Archive error:  %s\n", a)
	}
	return b.String()
}
