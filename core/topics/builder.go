// Package topics builds the theme → verse topical index and its catalog.
package topics

import (
	"math"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/ref"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/schema"
)

// DefaultWeight is used when a source has no weight value.
const DefaultWeight = 1.0

// MaxSamples is how many example rows are kept per drop reason.
const MaxSamples = 3

// Drop reasons recorded in the job report.
const (
	DropReferenceParse   = "reference_parse_failure"
	DropMissingReference = "missing_reference"
	DropMissingTopic     = "missing_topic"
	DropInvalidTopicID   = "invalid_topic_id"
	DropInvalidWeight    = "invalid_weight"
	DropBlank            = "blank_row"
)

// Link ties a topic to one verse.
type Link struct {
	TopicID int
	Ref     ref.Reference
	Weight  float64
}

// Topic is one catalog entry.
type Topic struct {
	ID    int    `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"t"`
}

// Slugify lowercases a label and replaces spaces with hyphens.
func Slugify(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
}

// placeholder builds the catalog entry of a topic known only by its id.
func placeholder(id int) Topic {
	n := strconv.Itoa(id)
	return Topic{ID: id, Slug: "theme-" + n, Title: "Thème " + n}
}

// ClampWeight forces w into [0, 1].
func ClampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}

// Stats counts what a builder has seen.
type Stats struct {
	RowsIn  int
	RowsOut int
	Topics  int
	Dropped map[string]int
	Samples map[string][]string // first MaxSamples drops per reason, blank rows excepted
}

// Builder turns rows into links, emitting each as soon as it is built.
// Only the catalog (one small entry per distinct topic) is retained.
type Builder struct {
	schema schema.Schema
	emit   func(Link) error

	catalog   []Topic
	byID      map[int]int    // topic id → index in catalog
	byLabel   map[string]int // topic label → topic id
	nextDense int

	stats  Stats
	source string
	row    int
}

// NewBuilder creates a builder for rows laid out per s.
func NewBuilder(s schema.Schema, emit func(Link) error) *Builder {
	return &Builder{
		schema:  s,
		emit:    emit,
		byID:    make(map[int]int),
		byLabel: make(map[string]int),
		stats:   Stats{Dropped: make(map[string]int), Samples: make(map[string][]string)},
	}
}

// Reset switches to the next source's layout. Topic ids and the catalog
// carry over, so a theme seen in two sources keeps one id.
func (b *Builder) Reset(s schema.Schema) {
	b.schema = s
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

	link, reason, cause := b.build(row)
	if reason != "" {
		b.drop(reason, cause)
		return nil
	}
	if err := b.emit(link); err != nil {
		return err
	}
	b.stats.RowsOut++
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

// build returns the row's link, or the drop reason and its cause.
func (b *Builder) build(row rows.Row) (Link, string, error) {
	if row.IsBlank() {
		return Link{}, DropBlank, nil
	}

	refText := row.At(b.schema.Column(schema.RoleReference)).Text()
	if refText == "" {
		return Link{}, DropMissingReference, nil
	}
	r, err := ref.Parse(refText)
	if err != nil {
		return Link{}, DropReferenceParse, err
	}

	weight := DefaultWeight
	if cell := row.At(b.schema.Column(schema.RoleWeight)); !cell.IsEmpty() {
		w, ok := cell.Float()
		if !ok || math.IsNaN(w) {
			return Link{}, DropInvalidWeight, nil
		}
		weight = ClampWeight(w)
	}

	id, reason := b.resolveTopic(row)
	if reason != "" {
		return Link{}, reason, nil
	}

	return Link{TopicID: id, Ref: r, Weight: weight}, "", nil
}

// resolveTopic returns the topic id of a row, registering new topics in
// first-seen order. The row is only registered once it is otherwise valid.
func (b *Builder) resolveTopic(row rows.Row) (int, string) {
	label := row.At(b.schema.Column(schema.RoleTopic)).Text()

	if cell := row.At(b.schema.Column(schema.RoleTopicID)); !cell.IsEmpty() {
		id, ok := cell.Int()
		if !ok || id < 0 {
			return 0, DropInvalidTopicID
		}
		if _, seen := b.byID[id]; !seen {
			b.add(placeholder(id))
		}
		return id, ""
	}

	if label == "" {
		return 0, DropMissingTopic
	}
	if id, seen := b.byLabel[label]; seen {
		return id, ""
	}
	id := b.allocate()
	b.byLabel[label] = id
	b.add(Topic{ID: id, Slug: Slugify(label), Title: label})
	return id, ""
}

// allocate returns the lowest dense id not yet claimed by an explicit id.
func (b *Builder) allocate() int {
	for {
		id := b.nextDense
		b.nextDense++
		if _, taken := b.byID[id]; !taken {
			return id
		}
	}
}

func (b *Builder) add(t Topic) {
	b.byID[t.ID] = len(b.catalog)
	b.catalog = append(b.catalog, t)
	b.stats.Topics = len(b.catalog)
}

// Catalog returns the topics in first-seen order. Call it after the last
// row: ids are only final once the whole stream has been consumed.
func (b *Builder) Catalog() []Topic {
	out := make([]Topic, len(b.catalog))
	copy(out, b.catalog)
	return out
}

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
