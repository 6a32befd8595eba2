package ingest

// gender.go infers a customer's gender from the free-text name when the
// export carries no explicit gender column. The rules encode a
// multi-ethnic naming convention and their precedence is deliberate:
//
//  1. A title as the first token is authoritative and returns immediately.
//  2. Patronymic infix markers (bin/binti, a/l, a/p, ...) score +2 so a
//     single contrary first-name match (+1) can never outvote the marker.
//  3. The higher score wins only when strictly greater; ties are unknown.

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Gender values produced by inference and by explicit gender columns.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// titles map an authoritative leading honorific to a gender.
var titles = map[string]string{
	"mr":      GenderMale,
	"encik":   GenderMale,
	"en":      GenderMale,
	"tuan":    GenderMale,
	"haji":    GenderMale,
	"hj":      GenderMale,
	"ustaz":   GenderMale,
	"dato":    GenderMale,
	"datuk":   GenderMale,
	"mrs":     GenderFemale,
	"ms":      GenderFemale,
	"miss":    GenderFemale,
	"madam":   GenderFemale,
	"mdm":     GenderFemale,
	"puan":    GenderFemale,
	"pn":      GenderFemale,
	"cik":     GenderFemale,
	"hajah":   GenderFemale,
	"hjh":     GenderFemale,
	"ustazah": GenderFemale,
	"datin":   GenderFemale,
}

// Patronymic infix markers. "bin"/"ibni" is son-of, "binti" daughter-of;
// "a/l" (anak lelaki) and "a/p" (anak perempuan) are the Indian-Malaysian
// equivalents, "s/o"/"d/o" the anglicized ones.
var (
	maleMarkers   = map[string]bool{"bin": true, "b": true, "ibni": true, "a/l": true, "al": true, "s/o": true}
	femaleMarkers = map[string]bool{"binti": true, "bt": true, "bte": true, "a/p": true, "ap": true, "d/o": true}
)

// First-name evidence tables. Not exhaustive; they only need to break the
// common cases where no marker or title is present.
var maleNames = map[string]bool{
	"ahmad": true, "muhammad": true, "muhamad": true, "mohd": true, "mohammad": true,
	"mohamed": true, "amir": true, "azlan": true, "azman": true, "farid": true,
	"hafiz": true, "iskandar": true, "kamal": true, "rahman": true, "syafiq": true,
	"zulkifli": true, "ismail": true, "ibrahim": true, "hassan": true, "hussein": true,
	"abdul": true, "abdullah": true, "adam": true, "danial": true, "harith": true,
	"wei": true, "ming": true, "jun": true, "kumar": true, "raj": true,
	"arjun": true, "ravi": true, "suresh": true, "ganesh": true, "muthu": true,
}

var femaleNames = map[string]bool{
	"nur": true, "nurul": true, "siti": true, "aisyah": true, "aishah": true,
	"fatimah": true, "zainab": true, "aina": true, "alia": true, "aliya": true,
	"farah": true, "hani": true, "izzah": true, "liyana": true, "maisarah": true,
	"nadia": true, "qistina": true, "sofea": true, "syafiqah": true, "zara": true,
	"mei": true, "ling": true, "hui": true, "xin": true, "priya": true,
	"devi": true, "kavitha": true, "lakshmi": true, "saraswathy": true, "shanti": true,
}

// InferGender returns Male, Female or "" for a free-text full name.
func InferGender(name string) string {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return ""
	}

	if g, ok := titles[tokens[0]]; ok {
		return g
	}

	var male, female int
	for _, tok := range tokens {
		switch {
		case maleMarkers[tok]:
			male += 2
		case femaleMarkers[tok]:
			female += 2
		case maleNames[tok]:
			male++
		case femaleNames[tok]:
			female++
		}
	}

	switch {
	case male > female:
		return GenderMale
	case female > male:
		return GenderFemale
	default:
		return ""
	}
}

// NormalizeGender canonicalizes an explicit gender cell. The exports use
// English and Malay single letters interchangeably (L=lelaki, P=perempuan).
func NormalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "l", "lelaki":
		return GenderMale
	case "f", "female", "p", "perempuan":
		return GenderFemale
	default:
		return ""
	}
}

// nameTokens lower-cases, diacritic-folds and splits a name, trimming
// stray punctuation so "Hj." and "bt." match their dictionary forms.
func nameTokens(name string) []string {
	folded := foldDiacritics(strings.ToLower(name))
	fields := strings.Fields(folded)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,'\"()")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// foldDiacritics strips combining marks after NFD decomposition.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
