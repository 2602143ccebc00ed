package models

import (
	"sort"
	"strings"
	"time"
)

// Format identifies the kind of raw document that was uploaded
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// IsImage reports whether the format is a raster image
func (f Format) IsImage() bool {
	return f == FormatJPEG || f == FormatPNG
}

// Document holds the raw bytes of one uploaded CV
type Document struct {
	Name   string `json:"name"`
	Format Format `json:"format"`
	Data   []byte `json:"-"`
	Index  int    `json:"index"` // original upload order
}

// SkillSet is a case-insensitive set of skills.
// The first spelling seen for a skill is kept for display.
type SkillSet struct {
	items map[string]string
}

// NewSkillSet builds a set from the given skills
func NewSkillSet(skills ...string) SkillSet {
	s := SkillSet{}
	for _, skill := range skills {
		s.Add(skill)
	}
	return s
}

// NormalizeSkill returns the comparison key of a skill
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Add inserts a skill unless an equal one (ignoring case) is already present.
// It returns true when the skill was added.
func (s *SkillSet) Add(skill string) bool {
	key := NormalizeSkill(skill)
	if key == "" {
		return false
	}
	if s.items == nil {
		s.items = make(map[string]string)
	}
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = strings.TrimSpace(skill)
	return true
}

// Has reports whether the skill is present, ignoring case
func (s SkillSet) Has(skill string) bool {
	_, ok := s.items[NormalizeSkill(skill)]
	return ok
}

// Len returns the number of distinct skills
func (s SkillSet) Len() int {
	return len(s.items)
}

// List returns the display forms sorted by their normalized key
func (s SkillSet) List() []string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

// MarshalJSON encodes the set as a sorted list
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return marshalStrings(s.List())
}

// UnmarshalJSON decodes a list of skills into the set
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	list, err := unmarshalStrings(data)
	if err != nil {
		return err
	}
	*s = NewSkillSet(list...)
	return nil
}

// CandidateProfile holds the fields extracted from a CV.
// Nil pointers mean the field could not be extracted.
type CandidateProfile struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	Skills          SkillSet `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
}

// CandidateRecord is a scored candidate ready for ranking
type CandidateRecord struct {
	Index          int              `json:"index"`
	Source         string           `json:"source"`
	Profile        CandidateProfile `json:"profile"`
	RelevanceScore float64          `json:"relevance_score"`
	CompositeScore float64          `json:"composite_score"`
}

// DisplayName returns the candidate name or a placeholder
func (r CandidateRecord) DisplayName() string {
	return valueOr(r.Profile.Name, "Unknown")
}

// Snapshot is the immutable result of one batch run.
// Stages that rank or filter return a new snapshot instead of changing this one.
type Snapshot struct {
	BatchID               string            `json:"batch_id"`
	CreatedAt             time.Time         `json:"created_at"`
	JobDescriptionPresent bool              `json:"job_description_present"`
	Records               []CandidateRecord `json:"records"`
}

// WithRecords returns a copy of the snapshot holding the given records
func (s Snapshot) WithRecords(records []CandidateRecord) Snapshot {
	cp := make([]CandidateRecord, len(records))
	copy(cp, records)
	s.Records = cp
	return s
}

// Len returns the number of records in the snapshot
func (s Snapshot) Len() int {
	return len(s.Records)
}

// FlatRecord is the flat row consumed by the table display and the report exporters
type FlatRecord struct {
	Rank            int      `json:"rank"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ExperienceYears int      `json:"experience_years"`
	SkillsCount     int      `json:"skills_count"`
	Skills          []string `json:"skills"`
	JobMatch        *float64 `json:"job_match,omitempty"` // only set when a job description was supplied
	FinalScore      float64  `json:"final_score"`
}

// FilterOptions are the conjunctive filters applied to a ranked snapshot
type FilterOptions struct {
	MinExperience  int      `json:"min_experience"`
	MinScore       float64  `json:"min_score"`
	RequiredSkills []string `json:"required_skills"`
}

// Bounds describes the value ranges found in a set of candidates.
// Front-ends use it to size their experience and score filters.
type Bounds struct {
	MinExperience int      `json:"min_experience"`
	MaxExperience int      `json:"max_experience"`
	MinScore      float64  `json:"min_score"`
	MaxScore      float64  `json:"max_score"`
	Skills        []string `json:"skills"`
}

// RankResponse is returned by the HTTP API after a batch was ranked.
// Bounds covers the whole batch, before filtering.
type RankResponse struct {
	Snapshot Snapshot     `json:"snapshot"`
	Rows     []FlatRecord `json:"rows"`
	Best     *FlatRecord  `json:"best,omitempty"`
	Bounds   Bounds       `json:"bounds"`
}

// StringValue returns the pointed-to string or ""
func StringValue(p *string) string {
	return valueOr(p, "")
}

func valueOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
