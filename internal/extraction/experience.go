package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// sectionStops end the work-history section; matched as prefixes so
// "certificat" covers certificates and certifications
var sectionStops = []string{"education", "certificat", "projet", "academic"}

var yearRangePattern = regexp.MustCompile(`(20\d{2})\s*(?:-|–|—|to)?\s*(present|current|20\d{2})`)

// ExperienceYears sums the year ranges listed in the experience section.
// Ranges shorter than a year are ignored and overlapping ranges are counted in full.
func ExperienceYears(text string, currentYear int) int {
	lower := strings.ToLower(text)

	_, section, found := strings.Cut(lower, "experience")
	if !found {
		return 0
	}

	for _, stop := range sectionStops {
		if i := strings.Index(section, stop); i >= 0 {
			section = section[:i]
		}
	}

	total := 0
	for _, m := range yearRangePattern.FindAllStringSubmatch(section, -1) {
		start, _ := strconv.Atoi(m[1])

		end := currentYear
		if m[2] != "present" && m[2] != "current" {
			end, _ = strconv.Atoi(m[2])
		}

		if d := end - start; d >= 1 {
			total += d
		}
	}
	return total
}
