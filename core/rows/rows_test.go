package rows

import (
	"io"
	"testing"
)

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Cell{}, ""},
		{"trimmed", Text("  amour  "), "amour"},
		{"blank is empty", Text("   "), ""},
		{"integral number", Num(12), "12"},
		{"fraction", Num(0.25), "0.25"},
		{"negative", Num(-3), "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellFloat(t *testing.T) {
	tests := []struct {
		name   string
		cell   Cell
		want   float64
		wantOK bool
	}{
		{"number", Num(1.5), 1.5, true},
		{"numeric text", Text("0.75"), 0.75, true},
		{"decimal comma", Text("0,5"), 0.5, true},
		{"padded", Text(" 2 "), 2, true},
		{"word", Text("heavy"), 0, false},
		{"empty", Cell{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.cell.Float()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Float() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCellInt(t *testing.T) {
	if n, ok := Num(3).Int(); !ok || n != 3 {
		t.Errorf("Num(3).Int() = (%d, %v)", n, ok)
	}
	if n, ok := Text("0").Int(); !ok || n != 0 {
		t.Errorf("Text(\"0\").Int() = (%d, %v)", n, ok)
	}
	if _, ok := Num(2.5).Int(); ok {
		t.Error("Num(2.5).Int() ok = true, want false")
	}
	if _, ok := Text("1e12").Int(); ok {
		t.Error("Text(\"1e12\").Int() ok = true, want false")
	}
}

func TestRowAt(t *testing.T) {
	r := Row{Text("a"), Num(1)}
	if got := r.At(0).Text(); got != "a" {
		t.Errorf("At(0) = %q", got)
	}
	if !r.At(5).IsEmpty() || !r.At(-1).IsEmpty() {
		t.Error("out-of-range At() should be empty")
	}
	if r.IsBlank() {
		t.Error("IsBlank() = true for populated row")
	}
	if !(Row{Cell{}, Text(" ")}).IsBlank() {
		t.Error("IsBlank() = false for blank row")
	}
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]string{"Verse"}, []Row{{Text("Jean 3:16")}, {Text("Gen 1:1")}})
	defer src.Close()

	if got := src.Header(); len(got) != 1 || got[0] != "Verse" {
		t.Errorf("Header() = %v", got)
	}
	var n int
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		n++
	}
	if n != 2 {
		t.Errorf("read %d rows, want 2", n)
	}
}
