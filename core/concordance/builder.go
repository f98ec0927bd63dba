// Package concordance builds the word → verse-occurrence index.
//
// Rows are processed strictly in source order. Summary rows establish the
// "current lemma"; the occurrence rows that follow are attributed to it.
// The carried lemma is an explicit fold: State is an immutable value and
// State.Step returns the next state together with the row's outcome.
package concordance

import (
	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/ref"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/schema"
)

// DefaultPOS is written when a source has no part-of-speech value.
const DefaultPOS = "n"

// MaxSamples is how many example rows are kept per drop reason.
const MaxSamples = 3

// Drop reasons recorded in the job report.
const (
	DropNoLemma          = "no_current_lemma"
	DropReferenceParse   = "reference_parse_failure"
	DropMissingReference = "missing_reference"
	DropAmbiguous        = "row_classification_ambiguous"
	DropBlank            = "blank_row"
)

// Entry is one concordance occurrence.
type Entry struct {
	Lemma   string
	Surface string
	Ref     ref.Reference
	POS     string
}

// Record returns the positional fields written to concordance.jsonl.gz:
// [lemma, surface, book, chapter, verse, pos].
func (e Entry) Record() []any {
	return []any{e.Lemma, e.Surface, e.Ref.Book, e.Ref.Chapter, e.Ref.Verse, e.POS}
}

// State is the fold accumulator: the lemma established by the most recent
// summary row. The zero value has no lemma.
type State struct {
	lemma string
}

// Lemma returns the current lemma, or "" before any summary row.
func (s State) Lemma() string { return s.lemma }

// Outcome is what one row contributed.
type Outcome struct {
	Header bool   // the row set a new lemma
	Emit   bool   // Entry is valid
	Entry  Entry  // set when Emit
	Reason string // drop reason when neither Header nor Emit
	Err    error  // cause of the drop, if any
}

// Step folds one classified row into the state.
func (s State) Step(c Class) (State, Outcome) {
	switch c.Kind {
	case KindHeader:
		return State{lemma: c.Lemma}, Outcome{Header: true}

	case KindOccurrence:
		next := s
		if c.Lemma != "" {
			next = State{lemma: c.Lemma}
		}
		if next.lemma == "" {
			return next, Outcome{Reason: DropNoLemma}
		}
		r, err := ref.Parse(c.RefText)
		if err != nil {
			return next, Outcome{Reason: DropReferenceParse, Err: err}
		}
		surface := c.Surface
		if surface == "" {
			surface = next.lemma
		}
		return next, Outcome{
			Emit: true,
			Entry: Entry{
				Lemma:   next.lemma,
				Surface: surface,
				Ref:     r,
				POS:     c.POS,
			},
		}

	default:
		return s, Outcome{Reason: c.Reason}
	}
}

// Stats counts what a builder has seen.
type Stats struct {
	RowsIn     int
	RowsOut    int
	HeaderRows int
	Dropped    map[string]int
	// Samples holds up to MaxSamples messages per drop reason, blank rows
	// excepted.
	Samples map[string][]string
}

// Builder drives the fold over a row stream and hands every entry to emit
// as soon as it is produced. Nothing is accumulated.
type Builder struct {
	schema schema.Schema
	emit   func(Entry) error
	state  State
	stats  Stats

	source string
	row    int
}

// NewBuilder creates a builder for rows laid out per s.
func NewBuilder(s schema.Schema, emit func(Entry) error) *Builder {
	return &Builder{
		schema: s,
		emit:   emit,
		stats:  Stats{Dropped: make(map[string]int), Samples: make(map[string][]string)},
	}
}

// Reset switches to a new source: the schema is replaced and the carried
// lemma cleared. Counters keep accumulating.
func (b *Builder) Reset(s schema.Schema) {
	b.schema = s
	b.state = State{}
	b.row = 0
}

// SetSource names the source whose rows follow, for drop samples. Row
// numbers restart at 1.
func (b *Builder) SetSource(name string) {
	b.source = name
	b.row = 0
}

// Feed processes one row. The only error it returns is the emit callback's,
// which is fatal for the job.
func (b *Builder) Feed(row rows.Row) error {
	b.stats.RowsIn++
	b.row++

	next, out := b.state.Step(Classify(b.schema, row))
	b.state = next

	switch {
	case out.Header:
		b.stats.HeaderRows++
	case out.Emit:
		if err := b.emit(out.Entry); err != nil {
			return err
		}
		b.stats.RowsOut++
	default:
		b.drop(out.Reason, out.Err)
	}
	return nil
}

func (b *Builder) drop(reason string, cause error) {
	b.stats.Dropped[reason]++
	if reason == DropBlank {
		return
	}
	if s := b.stats.Samples[reason]; len(s) < MaxSamples {
		b.stats.Samples[reason] = append(s, errors.NewRow(b.source, b.row, reason, cause).Error())
	}
}

// State returns the current fold state.
func (b *Builder) State() State { return b.state }

// Stats returns a snapshot of the counters.
func (b *Builder) Stats() Stats {
	out := b.stats
	out.Dropped = make(map[string]int, len(b.stats.Dropped))
	for k, v := range b.stats.Dropped {
		out.Dropped[k] = v
	}
	out.Samples = make(map[string][]string, len(b.stats.Samples))
	for k, v := range b.stats.Samples {
		out.Samples[k] = append([]string(nil), v...)
	}
	return out
}
