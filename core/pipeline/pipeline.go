// Package pipeline runs index builds: a schema detection pre-pass over every
// input, then one concordance job and one topical job over the inputs that
// support them. The two jobs share nothing and may run in parallel.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/selah-index/core/concordance"
	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/jsonl"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/schema"
	"github.com/FocuswithJustin/selah-index/core/topics"
)

// Output file names.
const (
	ConcordanceFile  = "concordance.jsonl.gz"
	TopicLinksFile   = "topics_links.jsonl.gz"
	TopicCatalogFile = "topics_min.json"
)

// DefaultParallel is the number of jobs run at once when Config.Parallel is
// not set.
const DefaultParallel = 2

// Opener opens a row source by path.
type Opener interface {
	Open(path string) (rows.Source, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (rows.Source, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (rows.Source, error) { return f(path) }

// Input is a source that passed detection.
type Input struct {
	Path   string
	Schema schema.Schema
}

// Hooks are called around each job. Either may be nil. They may be called
// from several goroutines at once.
type Hooks struct {
	JobStarted  func(kind Kind, runID string, sources []string)
	JobFinished func(report *JobReport)
}

// Config describes a build.
type Config struct {
	Inputs   []string
	OutDir   string
	Parallel int
	Hooks    Hooks
}

// Detect runs the detection pre-pass: every input is opened, its header
// mapped to roles, and closed again. Rejected inputs are returned as failures.
func Detect(opener Opener, paths []string) ([]Input, []Failure) {
	var inputs []Input
	var failures []Failure
	for _, path := range paths {
		s, err := detectOne(opener, path)
		if err != nil {
			failures = append(failures, Failure{Path: path, Error: err.Error(), Err: err})
			continue
		}
		inputs = append(inputs, Input{Path: path, Schema: s})
	}
	return inputs, failures
}

func detectOne(opener Opener, path string) (schema.Schema, error) {
	src, err := opener.Open(path)
	if err != nil {
		return schema.Schema{}, err
	}
	defer src.Close()

	s, err := schema.Detect(src.Header())
	if err != nil {
		var sde *errors.SchemaDetectionError
		if errors.As(err, &sde) {
			sde.Source = path
		}
		return schema.Schema{}, err
	}
	return s, nil
}

// Build detects every input and runs the jobs their schemas support. It only
// returns an error for an unusable Config; job and input failures are
// recorded in the result.
func Build(ctx context.Context, opener Opener, cfg Config) (*BuildResult, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.NewValidation("inputs", "at least one input is required")
	}
	if cfg.OutDir == "" {
		return nil, errors.NewValidation("out", "output directory is required")
	}
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	inputs, failures := Detect(opener, cfg.Inputs)
	result := &BuildResult{Failures: failures}

	var conc, top []Input
	for _, in := range inputs {
		if in.Schema.SupportsConcordance() {
			conc = append(conc, in)
		}
		if in.Schema.SupportsTopics() {
			top = append(top, in)
		}
	}

	type job struct {
		inputs []Input
		run    func(context.Context, Opener, []Input, string, Hooks) *JobReport
	}
	var jobs []job
	if len(conc) > 0 {
		jobs = append(jobs, job{conc, runConcordance})
	}
	if len(top) > 0 {
		jobs = append(jobs, job{top, runTopics})
	}

	result.Jobs = make([]*JobReport, len(jobs))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			// A failed job never cancels the other one: errors stay in
			// the report.
			result.Jobs[i] = j.run(ctx, opener, j.inputs, cfg.OutDir, cfg.Hooks)
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

// RunConcordance builds concordance.jsonl.gz in outDir from inputs, in order.
func RunConcordance(ctx context.Context, opener Opener, inputs []Input, outDir string) *JobReport {
	return runConcordance(ctx, opener, inputs, outDir, Hooks{})
}

// RunTopics builds topics_links.jsonl.gz and topics_min.json in outDir from
// inputs, in order. Topic ids are shared across inputs.
func RunTopics(ctx context.Context, opener Opener, inputs []Input, outDir string) *JobReport {
	return runTopics(ctx, opener, inputs, outDir, Hooks{})
}

func newReport(kind Kind, inputs []Input, hooks Hooks) *JobReport {
	r := &JobReport{
		RunID:           uuid.New().String(),
		Kind:            kind,
		DroppedByReason: map[string]int{},
		StartedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	for _, in := range inputs {
		r.Sources = append(r.Sources, in.Path)
	}
	if hooks.JobStarted != nil {
		hooks.JobStarted(kind, r.RunID, r.Sources)
	}
	return r
}

func done(r *JobReport, err error, hooks Hooks) *JobReport {
	r.finish(err)
	if hooks.JobFinished != nil {
		hooks.JobFinished(r)
	}
	return r
}

func runConcordance(ctx context.Context, opener Opener, inputs []Input, outDir string, hooks Hooks) *JobReport {
	rep := newReport(KindConcordance, inputs, hooks)
	if len(inputs) == 0 {
		return done(rep, errors.NewValidation("inputs", "no concordance source"), hooks)
	}

	w, err := jsonl.Create(filepath.Join(outDir, ConcordanceFile))
	if err != nil {
		return done(rep, err, hooks)
	}
	defer w.Abort()

	b := concordance.NewBuilder(inputs[0].Schema, func(e concordance.Entry) error {
		return w.WriteRecord(e.Record()...)
	})
	for i, in := range inputs {
		if i > 0 {
			b.Reset(in.Schema)
		}
		b.SetSource(in.Path)
		if err := feed(ctx, opener, in.Path, b.Feed); err != nil {
			fillConcordance(rep, b.Stats())
			return done(rep, err, hooks)
		}
	}
	fillConcordance(rep, b.Stats())

	a, err := w.Commit()
	if err != nil {
		return done(rep, err, hooks)
	}
	rep.OutputPaths = []string{a.Path}
	rep.Artifacts = []jsonl.Artifact{a}
	return done(rep, nil, hooks)
}

func fillConcordance(rep *JobReport, st concordance.Stats) {
	rep.RowsIn = st.RowsIn
	rep.RowsOut = st.RowsOut
	rep.HeaderRows = st.HeaderRows
	rep.DroppedByReason = st.Dropped
	if len(st.Samples) > 0 {
		rep.DropSamples = st.Samples
	}
}

func runTopics(ctx context.Context, opener Opener, inputs []Input, outDir string, hooks Hooks) *JobReport {
	rep := newReport(KindTopics, inputs, hooks)
	if len(inputs) == 0 {
		return done(rep, errors.NewValidation("inputs", "no topical source"), hooks)
	}

	w, err := jsonl.Create(filepath.Join(outDir, TopicLinksFile))
	if err != nil {
		return done(rep, err, hooks)
	}
	defer w.Abort()

	b := topics.NewBuilder(inputs[0].Schema, func(l topics.Link) error {
		return w.WriteRecord(linkRecord(l)...)
	})
	for i, in := range inputs {
		if i > 0 {
			b.Reset(in.Schema)
		}
		b.SetSource(in.Path)
		if err := feed(ctx, opener, in.Path, b.Feed); err != nil {
			fillTopics(rep, b.Stats())
			return done(rep, err, hooks)
		}
	}
	fillTopics(rep, b.Stats())

	links, err := w.Commit()
	if err != nil {
		return done(rep, err, hooks)
	}
	catalog, err := jsonl.WriteCatalog(filepath.Join(outDir, TopicCatalogFile), b.Catalog())
	if err != nil {
		// The links are meaningless without their catalog.
		os.Remove(links.Path)
		return done(rep, err, hooks)
	}

	rep.OutputPaths = []string{links.Path, catalog.Path}
	rep.Artifacts = []jsonl.Artifact{links, catalog}
	return done(rep, nil, hooks)
}

// linkRecord returns the positional fields written to topics_links.jsonl.gz:
// [topic_id, book, chapter, verse, weight].
func linkRecord(l topics.Link) []any {
	return []any{l.TopicID, l.Ref.Book, l.Ref.Chapter, l.Ref.Verse, jsonl.Weight(l.Weight)}
}

func fillTopics(rep *JobReport, st topics.Stats) {
	rep.RowsIn = st.RowsIn
	rep.RowsOut = st.RowsOut
	rep.Topics = st.Topics
	rep.DroppedByReason = st.Dropped
	if len(st.Samples) > 0 {
		rep.DropSamples = st.Samples
	}
}

// feed streams every data row of path into fn, checking ctx between rows.
func feed(ctx context.Context, opener Opener, path string, fn func(rows.Row) error) error {
	src, err := opener.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewIO("read", path, err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
