package topics

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/selah-index/core/ref"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/schema"
)

func mustDetect(t *testing.T, header ...string) schema.Schema {
	t.Helper()
	s, err := schema.Detect(header)
	if err != nil {
		t.Fatalf("Detect(%v) error: %v", header, err)
	}
	return s
}

func run(t *testing.T, s schema.Schema, in []rows.Row) ([]Link, *Builder) {
	t.Helper()
	var out []Link
	b := NewBuilder(s, func(l Link) error {
		out = append(out, l)
		return nil
	})
	for _, r := range in {
		if err := b.Feed(r); err != nil {
			t.Fatalf("Feed() error: %v", err)
		}
	}
	return out, b
}

func labelRow(topic, verse string) rows.Row {
	return rows.Row{rows.Text(topic), rows.Text(verse)}
}

func TestDenseIDsInFirstSeenOrder(t *testing.T) {
	s := mustDetect(t, "Topic", "Reference")
	links, b := run(t, s, []rows.Row{
		labelRow("Amour de Dieu", "Jean 3:16"),
		labelRow("Foi", "Héb 11:1"),
		labelRow("Amour de Dieu", "1 Jean 4:8"),
		labelRow("Prière", "Mat 6:9"),
	})

	gotIDs := make([]int, len(links))
	for i, l := range links {
		gotIDs[i] = l.TopicID
	}
	if want := []int{0, 1, 0, 2}; !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("topic ids = %v, want %v", gotIDs, want)
	}

	wantCatalog := []Topic{
		{ID: 0, Slug: "amour-de-dieu", Title: "Amour de Dieu"},
		{ID: 1, Slug: "foi", Title: "Foi"},
		{ID: 2, Slug: "prière", Title: "Prière"},
	}
	if got := b.Catalog(); !reflect.DeepEqual(got, wantCatalog) {
		t.Errorf("Catalog() = %+v, want %+v", got, wantCatalog)
	}
}

func TestDenseIDsCoverRange(t *testing.T) {
	s := mustDetect(t, "Sujet", "Verset")
	labels := []string{"a", "b", "c", "d", "e", "a", "c", "f"}
	var in []rows.Row
	for _, l := range labels {
		in = append(in, labelRow(l, "Ps 23:1"))
	}
	_, b := run(t, s, in)

	catalog := b.Catalog()
	if len(catalog) != 6 {
		t.Fatalf("len(Catalog()) = %d, want 6", len(catalog))
	}
	for i, topic := range catalog {
		if topic.ID != i {
			t.Errorf("catalog[%d].ID = %d", i, topic.ID)
		}
	}
}

func TestExplicitTopicIDs(t *testing.T) {
	s := mustDetect(t, "Sort", "Source", "Topic", "Num", "Verse")
	links, b := run(t, s, []rows.Row{
		{rows.Num(1), rows.Text("BSB"), rows.Text(""), rows.Num(7), rows.Text("Gen 1:1")},
		{rows.Num(2), rows.Text("BSB"), rows.Text(""), rows.Num(7), rows.Text("Gen 1:2")},
		{rows.Num(3), rows.Text("BSB"), rows.Text(""), rows.Text("3"), rows.Text("Gen 1:3")},
		{rows.Num(4), rows.Text("BSB"), rows.Text(""), rows.Num(-1), rows.Text("Gen 1:4")},
		{rows.Num(5), rows.Text("BSB"), rows.Text(""), rows.Num(2.5), rows.Text("Gen 1:5")},
	})

	if len(links) != 3 {
		t.Fatalf("len(links) = %d, want 3", len(links))
	}
	wantCatalog := []Topic{
		{ID: 7, Slug: "theme-7", Title: "Thème 7"},
		{ID: 3, Slug: "theme-3", Title: "Thème 3"},
	}
	if got := b.Catalog(); !reflect.DeepEqual(got, wantCatalog) {
		t.Errorf("Catalog() = %+v, want %+v", got, wantCatalog)
	}
	if got := b.Stats().Dropped[DropInvalidTopicID]; got != 2 {
		t.Errorf("Dropped[%s] = %d, want 2", DropInvalidTopicID, got)
	}
}

func TestLabelIDsSkipExplicitIDs(t *testing.T) {
	s := mustDetect(t, "Topic", "Topic ID", "Verse")
	links, _ := run(t, s, []rows.Row{
		{rows.Text(""), rows.Num(0), rows.Text("Gen 1:1")},
		{rows.Text("Création"), rows.Text(""), rows.Text("Gen 1:2")},
	})
	if len(links) != 2 || links[0].TopicID != 0 || links[1].TopicID != 1 {
		t.Errorf("links = %+v", links)
	}
}

func TestWeightClamping(t *testing.T) {
	s := mustDetect(t, "Theme", "Ref", "Weight")
	links, b := run(t, s, []rows.Row{
		{rows.Text("joie"), rows.Text("Phil 4:4"), rows.Num(1.3)},
		{rows.Text("joie"), rows.Text("Phil 4:4"), rows.Num(-0.2)},
		{rows.Text("joie"), rows.Text("Néh 8:10"), rows.Text("0,5")},
		{rows.Text("joie"), rows.Text("Ps 16:11"), rows.Text("")},
		{rows.Text("joie"), rows.Text("Ps 16:11"), rows.Text("lourd")},
		{rows.Text("joie"), rows.Text("Ps 16:11"), rows.Text("NaN")},
	})

	gotWeights := make([]float64, len(links))
	for i, l := range links {
		gotWeights[i] = l.Weight
	}
	if want := []float64{1.0, 0.0, 0.5, 1.0}; !reflect.DeepEqual(gotWeights, want) {
		t.Errorf("weights = %v, want %v", gotWeights, want)
	}
	if got := b.Stats().Dropped[DropInvalidWeight]; got != 2 {
		t.Errorf("Dropped[%s] = %d, want 2", DropInvalidWeight, got)
	}
}

func TestDefaultWeightWithoutColumn(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	links, _ := run(t, s, []rows.Row{labelRow("paix", "Jean 14:27")})
	if len(links) != 1 || links[0].Weight != DefaultWeight {
		t.Errorf("links = %+v", links)
	}
}

func TestNoDeduplication(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	links, _ := run(t, s, []rows.Row{
		labelRow("salut", "Rom 10:9"),
		labelRow("salut", "Rom 10:9"),
	})
	if len(links) != 2 || links[0] != links[1] {
		t.Errorf("links = %+v, want two identical links", links)
	}
	want := Link{TopicID: 0, Ref: ref.Reference{Book: "Romains", Chapter: 10, Verse: 9}, Weight: 1}
	if links[0] != want {
		t.Errorf("links[0] = %+v, want %+v", links[0], want)
	}
}

func TestDropReasons(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	links, b := run(t, s, []rows.Row{
		labelRow("vérité", ""),
		labelRow("vérité", "Nowhere 1:1"),
		labelRow("", "Jean 8:32"),
		{},
		labelRow("vérité", "Jean 14:6"),
	})
	if len(links) != 1 {
		t.Fatalf("len(links) = %d, want 1", len(links))
	}
	want := map[string]int{
		DropMissingReference: 1,
		DropReferenceParse:   1,
		DropMissingTopic:     1,
		DropBlank:            1,
	}
	stats := b.Stats()
	if !reflect.DeepEqual(stats.Dropped, want) {
		t.Errorf("Dropped = %v, want %v", stats.Dropped, want)
	}
	if stats.RowsIn != 5 || stats.RowsOut != 1 || stats.Topics != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if got := stats.Samples[DropMissingReference]; !reflect.DeepEqual(got, []string{"row 1: missing_reference"}) {
		t.Errorf("Samples[%s] = %q", DropMissingReference, got)
	}
	if got := stats.Samples[DropMissingTopic]; !reflect.DeepEqual(got, []string{"row 3: missing_topic"}) {
		t.Errorf("Samples[%s] = %q", DropMissingTopic, got)
	}
	if got := stats.Samples[DropReferenceParse]; len(got) != 1 || !strings.HasPrefix(got[0], `row 2: reference_parse_failure: unparseable reference "Nowhere 1:1"`) {
		t.Errorf("Samples[%s] = %q", DropReferenceParse, got)
	}
	if _, ok := stats.Samples[DropBlank]; ok {
		t.Error("blank rows should not be sampled")
	}
}

func TestInvalidRowsRegisterNoTopic(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	_, b := run(t, s, []rows.Row{
		labelRow("fantôme", "Nowhere 1:1"),
		labelRow("réel", "Gen 1:1"),
	})
	catalog := b.Catalog()
	if len(catalog) != 1 || catalog[0].ID != 0 || catalog[0].Title != "réel" {
		t.Errorf("Catalog() = %+v", catalog)
	}
}

func TestResetKeepsIDs(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	var links []Link
	b := NewBuilder(s, func(l Link) error { links = append(links, l); return nil })
	_ = b.Feed(labelRow("grâce", "Éph 2:8"))

	other := mustDetect(t, "Verse", "Thème")
	b.Reset(other)
	_ = b.Feed(rows.Row{rows.Text("Tite 2:11"), rows.Text("grâce")})

	if len(links) != 2 || links[1].TopicID != 0 {
		t.Errorf("links = %+v", links)
	}
}

func TestEmitErrorIsFatal(t *testing.T) {
	s := mustDetect(t, "Topic", "Verse")
	boom := errors.New("closed pipe")
	b := NewBuilder(s, func(Link) error { return boom })
	if err := b.Feed(labelRow("foi", "Rom 1:17")); !errors.Is(err, boom) {
		t.Errorf("Feed() error = %v, want %v", err, boom)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Amour de Dieu":   "amour-de-dieu",
		"  Foi ":          "foi",
		"ROYAUME":         "royaume",
		"Grâce et vérité": "grâce-et-vérité",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClampWeight(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.3, 1.0},
		{-0.2, 0.0},
		{0.42, 0.42},
		{0, 0},
		{1, 1},
	}
	for _, tt := range tests {
		if got := ClampWeight(tt.in); got != tt.want {
			t.Errorf("ClampWeight(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
