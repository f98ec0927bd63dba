package ref

import (
	"errors"
	"strings"
	"testing"

	selaherrors "github.com/FocuswithJustin/selah-index/core/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Reference
	}{
		{"Gen 32:15", Reference{"Genèse", 32, 15}},
		{"Gen 32:15-17", Reference{"Genèse", 32, 15}},
		{"Jean 3:16", Reference{"Jean", 3, 16}},
		{"Jean 3:16-18", Reference{"Jean", 3, 16}},
		{"1 Jean 4:8", Reference{"1 Jean", 4, 8}},
		{"1John 4:8", Reference{"1 Jean", 4, 8}},
		{"  John 1:1  ", Reference{"Jean", 1, 1}},
		{"Genèse 1:1", Reference{"Genèse", 1, 1}},
		{"Éph 2:8", Reference{"Éphésiens", 2, 8}},
		{"Cantique des Cantiques 2:1", Reference{"Cantique des Cantiques", 2, 1}},
		{"Song of Solomon 2:1", Reference{"Cantique des Cantiques", 2, 1}},
		{"Ps\t23:1", Reference{"Psaumes", 23, 1}},
		{"Rev. 22:21", Reference{"Apocalypse", 22, 21}},
		{"1 Cor 13:4-7", Reference{"1 Corinthiens", 13, 4}},
		{"Rom 8:28 (BSB)", Reference{"Romains", 8, 28}},
		{"Matt 5:3–12", Reference{"Matthieu", 5, 3}},
		{"Gen 1:1-2:3", Reference{"Genèse", 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCaseInsensitiveFallback(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gen 1:1", "Genèse"},
		{"GENÈSE 1:1", "Genèse"},
		{"jean 3:16", "Jean"},
		{"1 JN 1:9", "1 Jean"},
		{"song of songs 1:1", "Cantique des Cantiques"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got.Book != tt.want {
				t.Errorf("Parse(%q).Book = %q, want %q", tt.input, got.Book, tt.want)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"Gen",
		"Gen 32",
		"3:16",
		"Foo 1:1",
		"Gen 0:1",
		"Gen 1:0",
		"Gen 99999999999999999999:1",
		"Gen, 1:1",
		"Gen32:15",
		"1Jn4:8",
		"Gen 1 : 1",
		"Gen 1: 1",
		"Gen 1 :1",
		"(Jean 3:16)",
		"amour (12 Occurrences)",
		"\xff\xfe 1:1",
		strings.Repeat("a", 1000),
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := Parse(input)
			if err == nil {
				t.Fatalf("Parse(%q) = %+v, want error", input, got)
			}
			if !errors.Is(err, selaherrors.ErrReferenceParse) {
				t.Errorf("Parse(%q) error = %v, want ErrReferenceParse", input, err)
			}
			var perr *selaherrors.ReferenceParseError
			if !errors.As(err, &perr) || perr.Input != input {
				t.Errorf("Parse(%q) error does not carry the input: %v", input, err)
			}
			if !got.IsZero() {
				t.Errorf("Parse(%q) returned non-zero reference on failure: %+v", input, got)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{"Gen 32:15-17", "1John 4:8", "cant 2:1", "Héb 11:1", "3 Jn 1:4"}
	for _, input := range inputs {
		first, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		second, err := Parse(first.String())
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", first.String(), err)
		}
		if first != second {
			t.Errorf("re-canonicalizing %q: %+v != %+v", input, second, first)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		got := MustParse("Jean 3:16-18")
		if got != (Reference{"Jean", 3, 16}) {
			t.Fatalf("MustParse iteration %d = %+v", i, got)
		}
	}
}

func TestReferenceString(t *testing.T) {
	r := Reference{Book: "1 Jean", Chapter: 4, Verse: 8}
	if got, want := r.String(), "1 Jean 4:8"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on invalid input")
		}
	}()
	MustParse("nowhere 1:1")
}

func TestParseCached(t *testing.T) {
	const text = "Apoc 22:21 (cache)"
	before := CacheStats()

	r1, err1 := Parse(text)
	r2, err2 := Parse(text)
	if r1 != r2 || err1 != err2 {
		t.Errorf("cached Parse differs: %+v, %v vs %+v, %v", r1, err1, r2, err2)
	}
	if r1 != (Reference{"Apocalypse", 22, 21}) {
		t.Errorf("Parse(%q) = %+v", text, r1)
	}

	after := CacheStats()
	if after.Hits <= before.Hits {
		t.Errorf("Hits = %d, want more than %d", after.Hits, before.Hits)
	}

	// Failures are memoized too.
	_, e1 := Parse("Nowhere 1:1 (cache)")
	_, e2 := Parse("Nowhere 1:1 (cache)")
	if e1 == nil || e1 != e2 {
		t.Errorf("cached failure = %v, %v", e1, e2)
	}
}
