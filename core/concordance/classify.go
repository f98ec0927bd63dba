package concordance

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/schema"
)

// Kind tags the shape of a row.
type Kind int

const (
	// KindSkip marks a row that produces nothing; Class.Reason says why.
	KindSkip Kind = iota
	// KindHeader marks a summary row that introduces a new lemma.
	KindHeader
	// KindOccurrence marks a row carrying one verse occurrence.
	KindOccurrence
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindOccurrence:
		return "occurrence"
	default:
		return "skip"
	}
}

// Class is the result of classifying one row. Only the fields relevant to
// Kind are set.
type Class struct {
	Kind    Kind
	Lemma   string // header lemma, or the row's own lemma in flat layouts
	Surface string // flat layouts only
	RefText string
	POS     string
	Reason  string // KindSkip only
}

// headerPattern matches summary entries such as "amour (12 Occurrences)".
var headerPattern = regexp.MustCompile(`^[^()]*[^()\s][^()]*\(\s*\d+[^()]*\)`)

// headerLemma extracts the lemma of a summary entry: the text before the
// first "(". ok is false when entry is not a summary entry.
func headerLemma(entry string) (string, bool) {
	if !headerPattern.MatchString(entry) {
		return "", false
	}
	lemma, _, _ := strings.Cut(entry, "(")
	lemma = strings.TrimSpace(lemma)
	return lemma, lemma != ""
}

// stripCount drops a trailing parenthesized count from a lemma cell.
func stripCount(cell string) string {
	if lemma, ok := headerLemma(cell); ok {
		return lemma
	}
	return cell
}

// Classify assigns one of the closed set of row kinds. It never parses the
// reference; that is left to the fold so that parse failures are counted
// against the right reason.
//
// Sources with an occurrence column follow the summary/occurrence layout:
// occurrence 0 plus "lemma (N …)" is a header, occurrence > 0 is a verse.
// Sources without one are flat: every row with a reference is an occurrence
// and may carry its own lemma.
func Classify(s schema.Schema, row rows.Row) Class {
	if row.IsBlank() {
		return Class{Kind: KindSkip, Reason: DropBlank}
	}

	lemmaCell := row.At(s.Column(schema.RoleLemma)).Text()
	refText := row.At(s.Column(schema.RoleReference)).Text()
	pos := row.At(s.Column(schema.RolePartOfSpeech)).Text()
	if pos == "" {
		pos = DefaultPOS
	}

	if !s.Has(schema.RoleOccurrence) {
		if refText == "" {
			if lemma, ok := headerLemma(lemmaCell); ok {
				return Class{Kind: KindHeader, Lemma: lemma}
			}
			return Class{Kind: KindSkip, Reason: DropMissingReference}
		}
		return Class{
			Kind:    KindOccurrence,
			Lemma:   stripCount(lemmaCell),
			Surface: row.At(s.Column(schema.RoleSurface)).Text(),
			RefText: refText,
			POS:     pos,
		}
	}

	occ, ok := row.At(s.Column(schema.RoleOccurrence)).Float()
	switch {
	case ok && occ == 0:
		if lemma, ok := headerLemma(lemmaCell); ok {
			return Class{Kind: KindHeader, Lemma: lemma}
		}
		return Class{Kind: KindSkip, Reason: DropAmbiguous}
	case ok && occ > 0:
		if refText == "" {
			return Class{Kind: KindSkip, Reason: DropMissingReference}
		}
		return Class{Kind: KindOccurrence, RefText: refText, POS: pos}
	default:
		return Class{Kind: KindSkip, Reason: DropAmbiguous}
	}
}
