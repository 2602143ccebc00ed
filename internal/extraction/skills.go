package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Vocabulary is the fixed list of common skills searched anywhere in a CV.
// Terms are matched as plain substrings of the lower-cased text, so the
// upper-case entries never match.
var Vocabulary = []string{
	"python",
	"java",
	"sql",
	"management",
	"leadership",
	"communication",
	"marketing",
	"design",
	"excel",
	"git",
	"AI",
	"machine learning",
	"NLP",
	"deep learning",
	"natural language processing",
}

var skillDelimiters = regexp.MustCompile(`,|•|-`)

// ExtractSkills returns the union of the skills-section capture and the vocabulary scan
func ExtractSkills(text string) models.SkillSet {
	skills := models.NewSkillSet(SectionSkills(text)...)
	for _, s := range VocabularySkills(text) {
		skills.Add(s)
	}
	return skills
}

// SectionSkills captures the lines after the first line mentioning "skills" up to the
// next blank line. Lines mentioning "skills" themselves are skipped.
func SectionSkills(text string) []string {
	if !strings.Contains(strings.ToLower(text), "skills") {
		return nil
	}

	var out []string
	capture := false
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), "skills") {
			capture = true
			continue
		}
		if !capture {
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}

		for _, part := range skillDelimiters.Split(line, -1) {
			part = strings.TrimSpace(part)
			if utf8.RuneCountInString(part) > 2 {
				out = append(out, part)
			}
		}
	}
	return out
}

// VocabularySkills returns the capitalized vocabulary terms contained in the lower-cased text.
// "java" is found inside "javascript".
func VocabularySkills(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	for _, term := range Vocabulary {
		if strings.Contains(lower, term) {
			out = append(out, capitalize(term))
		}
	}
	return out
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
