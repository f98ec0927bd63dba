// Package ref canonicalizes free-form scripture references.
//
// Sources spell books many ways ("Gen", "Genèse", "1Jn", "1 Jean") and attach
// ranges ("Jean 3:16-18"). Parse reduces all of them to a Reference holding the
// canonical book name, the chapter and the first verse. Ranges are collapsed to
// their start; nothing downstream keeps the range end.
package ref

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/selah-index/core/cache"
	"github.com/FocuswithJustin/selah-index/core/errors"
)

// CacheSize bounds the number of memoized Parse results.
const CacheSize = 8192

type result struct {
	ref Reference
	err error
}

// parseCache memoizes Parse. Concordance and topical exports repeat the same
// reference text many times.
var parseCache = cache.NewLRU[string, result](CacheSize)

// CacheStats reports how often Parse was served from its cache.
func CacheStats() cache.Stats {
	return parseCache.Stats()
}

// Reference is a canonical (book, chapter, verse) triple.
type Reference struct {
	// Book is the canonical book name (e.g., "Genèse", "1 Jean").
	Book string `json:"book"`

	// Chapter is the 1-based chapter number.
	Chapter int `json:"chapter"`

	// Verse is the 1-based verse number (the start of any parsed range).
	Verse int `json:"verse"`
}

// String renders the reference in the form Parse accepts, so that
// Parse(r.String()) == r for every valid r.
func (r Reference) String() string {
	return r.Book + " " + strconv.Itoa(r.Chapter) + ":" + strconv.Itoa(r.Verse)
}

// IsZero reports whether r is the zero Reference.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// refGrammar matches "<book words> <chapter>:<verse> <anything>".
// ChapterVerse is lexed before Int, so the book repetition always stops at the
// first chapter:verse pair without backtracking.
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Book  []string `@(Int | Word)+`
	Locus *locus   `@@`
	Tail  []string `@(ChapterVerse | Int | Word | Dash | Other)*`
}

// locus keeps its position so Parse can insist on a space before the chapter.
type locus struct {
	Pos  lexer.Position
	Text string `@ChapterVerse`
}

// refLexer tokenizes reference text. Other swallows any stray rune so that
// lexing never fails on unexpected input.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "ChapterVerse", Pattern: `\d+:\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Word", Pattern: `[\p{L}\p{M}][\p{L}\p{M}'’]*\.?`},
	{Name: "Dash", Pattern: `[-‐‑–—]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// Parse canonicalizes reference text such as "Gen 32:15" or "Jean 3:16-18".
// It never panics: any input it cannot resolve yields a
// *errors.ReferenceParseError. Identical input always yields identical output.
func Parse(text string) (Reference, error) {
	res := parseCache.GetOrLoad(text, func(text string) result {
		r, err := parse(text)
		return result{r, err}
	})
	return res.ref, res.err
}

func parse(text string) (Reference, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Reference{}, errors.NewReferenceParse(text, "empty reference")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return Reference{}, errors.NewReferenceParse(text, "expected \"<book> <chapter>:<verse>\"")
	}

	if r, _ := utf8.DecodeLastRuneInString(s[:parsed.Locus.Pos.Offset]); !unicode.IsSpace(r) {
		return Reference{}, errors.NewReferenceParse(text, "expected a space between book and chapter")
	}

	token := joinBookParts(parsed.Book)
	book, ok := LookupBook(token)
	if !ok {
		return Reference{}, errors.NewReferenceParse(text, fmt.Sprintf("unknown book %q", token))
	}

	chapter, verse, err := splitLocus(parsed.Locus.Text)
	if err != nil {
		return Reference{}, errors.NewReferenceParse(text, err.Error())
	}

	return Reference{Book: book.Name, Chapter: chapter, Verse: verse}, nil
}

// MustParse is like Parse but panics on failure. Intended for tests and
// static tables.
func MustParse(text string) Reference {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// joinBookParts rebuilds the book token from its lexed parts. A numeric
// prefix glued to the name ("1John") comes out as "1 John".
func joinBookParts(parts []string) string {
	return strings.Join(parts, " ")
}

// splitLocus parses "32:15".
func splitLocus(locus string) (int, int, error) {
	ch, vs, ok := strings.Cut(locus, ":")
	if !ok {
		return 0, 0, fmt.Errorf("missing chapter:verse separator")
	}
	chapter, err := strconv.Atoi(strings.TrimSpace(ch))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chapter %q", ch)
	}
	verse, err := strconv.Atoi(strings.TrimSpace(vs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid verse %q", vs)
	}
	if chapter < 1 {
		return 0, 0, fmt.Errorf("chapter must be at least 1")
	}
	if verse < 1 {
		return 0, 0, fmt.Errorf("verse must be at least 1")
	}
	return chapter, verse, nil
}
