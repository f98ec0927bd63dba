package ref

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Book describes one canonical book of the Protestant canon.
type Book struct {
	// Name is the canonical (French) name written to every artifact.
	Name string `json:"name"`

	// OSIS is the OSIS book ID (e.g., "Gen", "1John").
	OSIS string `json:"osis"`

	// Order is the 1-based canonical position.
	Order int `json:"order"`

	// Testament is "OT" or "NT".
	Testament string `json:"testament"`

	// Aliases are the abbreviations and foreign names resolved to Name.
	Aliases []string `json:"aliases,omitempty"`
}

// books contains the 66 canonical books in canonical order.
// Aliases cover the French abbreviations used by the French sources and the
// English names/abbreviations used by the BSB spreadsheets.
var books = []Book{
	// Old Testament
	{"Genèse", "Gen", 1, "OT", []string{"Gen", "Ge", "Gn", "Genesis", "Genese"}},
	{"Exode", "Exod", 2, "OT", []string{"Ex", "Exo", "Exod", "Exodus"}},
	{"Lévitique", "Lev", 3, "OT", []string{"Lév", "Lev", "Lv", "Leviticus", "Levitique"}},
	{"Nombres", "Num", 4, "OT", []string{"Nomb", "Nb", "Num", "Numbers"}},
	{"Deutéronome", "Deut", 5, "OT", []string{"Deut", "Dt", "Deu", "Deuteronomy", "Deuteronome"}},
	{"Josué", "Josh", 6, "OT", []string{"Jos", "Josh", "Joshua", "Josue"}},
	{"Juges", "Judg", 7, "OT", []string{"Jug", "Jg", "Judg", "Judges"}},
	{"Ruth", "Ruth", 8, "OT", []string{"Rt", "Ru"}},
	{"1 Samuel", "1Sam", 9, "OT", []string{"1 Sam", "1 S", "1 Sa"}},
	{"2 Samuel", "2Sam", 10, "OT", []string{"2 Sam", "2 S", "2 Sa"}},
	{"1 Rois", "1Kgs", 11, "OT", []string{"1 R", "1 Kgs", "1 Ki", "1 Kings"}},
	{"2 Rois", "2Kgs", 12, "OT", []string{"2 R", "2 Kgs", "2 Ki", "2 Kings"}},
	{"1 Chroniques", "1Chr", 13, "OT", []string{"1 Chron", "1 Chr", "1 Ch", "1 Chronicles"}},
	{"2 Chroniques", "2Chr", 14, "OT", []string{"2 Chron", "2 Chr", "2 Ch", "2 Chronicles"}},
	{"Esdras", "Ezra", 15, "OT", []string{"Esd", "Ezra", "Ezr"}},
	{"Néhémie", "Neh", 16, "OT", []string{"Néh", "Neh", "Ne", "Nehemiah", "Nehemie"}},
	{"Esther", "Esth", 17, "OT", []string{"Est", "Esth"}},
	{"Job", "Job", 18, "OT", []string{"Jb"}},
	{"Psaumes", "Ps", 19, "OT", []string{"Ps", "Psa", "Psaume", "Psalm", "Psalms"}},
	{"Proverbes", "Prov", 20, "OT", []string{"Prov", "Pr", "Pro", "Proverbs"}},
	{"Ecclésiaste", "Eccl", 21, "OT", []string{"Eccl", "Ecc", "Ec", "Qo", "Ecclesiastes", "Ecclesiaste"}},
	{"Cantique des Cantiques", "Song", 22, "OT", []string{"Cant", "Ct", "Cantique", "Song", "Sng", "Song of Solomon", "Song of Songs"}},
	{"Ésaïe", "Isa", 23, "OT", []string{"És", "Es", "Is", "Isa", "Isaïe", "Isaiah", "Esaie"}},
	{"Jérémie", "Jer", 24, "OT", []string{"Jér", "Jr", "Jer", "Jeremiah", "Jeremie"}},
	{"Lamentations", "Lam", 25, "OT", []string{"Lam", "La"}},
	{"Ézéchiel", "Ezek", 26, "OT", []string{"Éz", "Ez", "Ezek", "Eze", "Ezekiel", "Ezechiel"}},
	{"Daniel", "Dan", 27, "OT", []string{"Dan", "Dn", "Da"}},
	{"Osée", "Hos", 28, "OT", []string{"Os", "Hos", "Hosea", "Osee"}},
	{"Joël", "Joel", 29, "OT", []string{"Jl", "Joel"}},
	{"Amos", "Amos", 30, "OT", []string{"Am"}},
	{"Abdias", "Obad", 31, "OT", []string{"Abd", "Ab", "Obad", "Oba", "Obadiah"}},
	{"Jonas", "Jonah", 32, "OT", []string{"Jon", "Jnh", "Jonah"}},
	{"Michée", "Mic", 33, "OT", []string{"Mich", "Mi", "Mic", "Micah", "Michee"}},
	{"Nahum", "Nah", 34, "OT", []string{"Nah", "Na"}},
	{"Habacuc", "Hab", 35, "OT", []string{"Hab", "Ha", "Habakkuk"}},
	{"Sophonie", "Zeph", 36, "OT", []string{"Soph", "So", "Zeph", "Zep", "Zephaniah"}},
	{"Aggée", "Hag", 37, "OT", []string{"Agg", "Ag", "Hag", "Haggai", "Aggee"}},
	{"Zacharie", "Zech", 38, "OT", []string{"Zac", "Za", "Zech", "Zec", "Zechariah"}},
	{"Malachie", "Mal", 39, "OT", []string{"Mal", "Ml", "Malachi"}},

	// New Testament
	{"Matthieu", "Matt", 40, "NT", []string{"Mat", "Mt", "Matt", "Matthew"}},
	{"Marc", "Mark", 41, "NT", []string{"Mc", "Mr", "Mk", "Mrk", "Mark"}},
	{"Luc", "Luke", 42, "NT", []string{"Lc", "Lu", "Lk", "Luk", "Luke"}},
	{"Jean", "John", 43, "NT", []string{"Jn", "Joh", "John"}},
	{"Actes", "Acts", 44, "NT", []string{"Act", "Ac", "Acts"}},
	{"Romains", "Rom", 45, "NT", []string{"Rom", "Rm", "Ro", "Romans"}},
	{"1 Corinthiens", "1Cor", 46, "NT", []string{"1 Cor", "1 Co", "1 Corinthians"}},
	{"2 Corinthiens", "2Cor", 47, "NT", []string{"2 Cor", "2 Co", "2 Corinthians"}},
	{"Galates", "Gal", 48, "NT", []string{"Gal", "Ga", "Galatians"}},
	{"Éphésiens", "Eph", 49, "NT", []string{"Éph", "Ep", "Eph", "Ephesians", "Ephesiens"}},
	{"Philippiens", "Phil", 50, "NT", []string{"Phil", "Ph", "Php", "Philippians"}},
	{"Colossiens", "Col", 51, "NT", []string{"Col", "Colossians"}},
	{"1 Thessaloniciens", "1Thess", 52, "NT", []string{"1 Thess", "1 Thes", "1 Th", "1 Thessalonians"}},
	{"2 Thessaloniciens", "2Thess", 53, "NT", []string{"2 Thess", "2 Thes", "2 Th", "2 Thessalonians"}},
	{"1 Timothée", "1Tim", 54, "NT", []string{"1 Tim", "1 Tm", "1 Timothy", "1 Timothee"}},
	{"2 Timothée", "2Tim", 55, "NT", []string{"2 Tim", "2 Tm", "2 Timothy", "2 Timothee"}},
	{"Tite", "Titus", 56, "NT", []string{"Tt", "Tit", "Titus"}},
	{"Philémon", "Phlm", 57, "NT", []string{"Philém", "Phm", "Phlm", "Philem", "Philemon"}},
	{"Hébreux", "Heb", 58, "NT", []string{"Héb", "He", "Heb", "Hebrews", "Hebreux"}},
	{"Jacques", "Jas", 59, "NT", []string{"Jac", "Jc", "Jas", "Jam", "James"}},
	{"1 Pierre", "1Pet", 60, "NT", []string{"1 Pi", "1 P", "1 Pe", "1 Pet", "1 Peter"}},
	{"2 Pierre", "2Pet", 61, "NT", []string{"2 Pi", "2 P", "2 Pe", "2 Pet", "2 Peter"}},
	{"1 Jean", "1John", 62, "NT", []string{"1 Jn", "1 Jo", "1 John"}},
	{"2 Jean", "2John", 63, "NT", []string{"2 Jn", "2 Jo", "2 John"}},
	{"3 Jean", "3John", 64, "NT", []string{"3 Jn", "3 Jo", "3 John"}},
	{"Jude", "Jude", 65, "NT", []string{"Jud", "Jd"}},
	{"Apocalypse", "Rev", 66, "NT", []string{"Apoc", "Ap", "Rev", "Re", "Revelation"}},
}

var (
	// exactIndex maps every alias and canonical name, verbatim, to its book.
	exactIndex = make(map[string]*Book)
	// foldedIndex maps case-folded aliases to their book.
	foldedIndex = make(map[string]*Book)
)

func init() {
	for i := range books {
		b := &books[i]
		register(b, b.Name)
		for _, alias := range b.Aliases {
			register(b, alias)
		}
	}
}

func register(b *Book, alias string) {
	key := norm.NFC.String(alias)
	if _, ok := exactIndex[key]; !ok {
		exactIndex[key] = b
	}
	folded := foldKey(key)
	if _, ok := foldedIndex[folded]; !ok {
		foldedIndex[folded] = b
	}
}

// foldKey returns the case-insensitive lookup key for s.
// A Caser is stateful, so each call builds its own.
func foldKey(s string) string {
	return cases.Fold().String(s)
}

// normalizeBookToken collapses whitespace, strips abbreviation periods and
// applies NFC so that "1  Jn." and "1 Jn" resolve alike.
func normalizeBookToken(token string) string {
	fields := strings.Fields(norm.NFC.String(token))
	for i, f := range fields {
		fields[i] = strings.TrimRight(f, ".")
	}
	return strings.Join(fields, " ")
}

// LookupBook resolves a book token to its canonical book.
// The verbatim alias table is consulted first, then a case-folded one.
func LookupBook(token string) (*Book, bool) {
	key := normalizeBookToken(token)
	if key == "" {
		return nil, false
	}
	if b, ok := exactIndex[key]; ok {
		return b, true
	}
	if b, ok := foldedIndex[foldKey(key)]; ok {
		return b, true
	}
	return nil, false
}

// Books returns a copy of the canonical book table in canonical order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}
