// Package schema maps a source header to semantic column roles.
package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

// Role is the semantic meaning of a column.
type Role string

// Column roles.
const (
	RoleReference    Role = "reference"
	RoleTopicID      Role = "topic_id"
	RoleTopic        Role = "topic"
	RoleLemma        Role = "lemma"
	RoleSurface      Role = "surface"
	RolePartOfSpeech Role = "part_of_speech"
	RoleOccurrence   Role = "occurrence"
	RoleWeight       Role = "weight"
)

// vocabulary lists the keywords of each role. A column takes the first role,
// in this order, that is still free and whose keyword appears in its label;
// "topic id" therefore wins over "topic", and "Verse Count" after "Verse"
// becomes the occurrence column. Labels in exact match only as a whole:
// "Num" is the BSB topic number, "Strong Num" is not.
var vocabulary = []struct {
	role     Role
	keywords []string
	exact    []string
}{
	{RoleReference, []string{"ref", "référence", "verse", "verset"}, nil},
	{RoleTopicID, []string{"topic id", "topic_id", "theme id", "thème id"}, []string{"num"}},
	{RoleTopic, []string{"topic", "thème", "theme", "sujet"}, nil},
	{RoleLemma, []string{"lemma", "lemme", "racine", "entry", "entrée"}, nil},
	{RoleSurface, []string{"surface", "forme", "mot", "word"}, nil},
	{RolePartOfSpeech, []string{"pos", "part", "grammaire"}, nil},
	{RoleOccurrence, []string{"occ", "count"}, nil},
	{RoleWeight, []string{"weight", "poids", "score"}, nil},
}

// Roles returns every role in matching order.
func Roles() []Role {
	out := make([]Role, len(vocabulary))
	for i, v := range vocabulary {
		out[i] = v.role
	}
	return out
}

// Schema is the role → column index mapping of one source.
type Schema struct {
	Header  []string
	Columns map[Role]int
}

// Column returns the column index for role, or -1 when the role is absent.
func (s Schema) Column(role Role) int {
	if i, ok := s.Columns[role]; ok {
		return i
	}
	return -1
}

// Has reports whether role was matched.
func (s Schema) Has(role Role) bool {
	_, ok := s.Columns[role]
	return ok
}

// SupportsConcordance reports whether the source can feed the concordance.
func (s Schema) SupportsConcordance() bool {
	return s.Has(RoleReference) && s.Has(RoleLemma)
}

// SupportsTopics reports whether the source can feed the topical index.
func (s Schema) SupportsTopics() bool {
	return s.Has(RoleReference) && (s.Has(RoleTopic) || s.Has(RoleTopicID))
}

// Detect maps header labels to roles using case-insensitive substring
// matching. It fails with *errors.SchemaDetectionError when no reference
// column exists or when the source supports neither index.
func Detect(header []string) (Schema, error) {
	s := Schema{Header: header, Columns: make(map[Role]int)}

	for i, label := range header {
		folded := fold(label)
		if folded == "" {
			continue
		}
		for _, v := range vocabulary {
			if _, taken := s.Columns[v.role]; taken {
				continue
			}
			if matches(folded, v.keywords) || isOneOf(folded, v.exact) {
				s.Columns[v.role] = i
				break
			}
		}
	}

	var missing []string
	if !s.Has(RoleReference) {
		missing = append(missing, string(RoleReference))
	}
	if !s.Has(RoleLemma) && !s.Has(RoleTopic) && !s.Has(RoleTopicID) {
		missing = append(missing, string(RoleLemma), string(RoleTopic))
	}
	if len(missing) > 0 {
		return s, errors.NewSchemaDetection("", header, missing)
	}
	return s, nil
}

func matches(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, fold(kw)) {
			return true
		}
	}
	return false
}

func isOneOf(folded string, labels []string) bool {
	for _, l := range labels {
		if folded == fold(l) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
