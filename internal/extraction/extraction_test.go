package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

type fakeRecognizer struct {
	people []string
	err    error
	calls  int
}

func (f *fakeRecognizer) People(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.people, f.err
}

func (f *fakeRecognizer) Check(_ context.Context) error { return f.err }

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
}

const sampleCV = `Jane Doe
jane.doe@example.com
+33 6 12 34 56 78

Skills
Python, SQL • Docker - Go

Experience
2019-2021 Engineer
2021-present Senior Engineer
Education
2014-2018 University`

func TestExtract(t *testing.T) {
	e := New(&fakeRecognizer{}, WithClock(fixedClock(2024)))
	p := e.Extract(context.Background(), sampleCV)

	require.NotNil(t, p.Name)
	require.NotNil(t, p.Email)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "Jane Doe", *p.Name)
	assert.Equal(t, "jane.doe@example.com", *p.Email)
	assert.Equal(t, "+33 6 12 34 56 78", *p.Phone)
	assert.Equal(t, []string{"Docker", "Python", "SQL"}, p.Skills.List())
	assert.Equal(t, 5, p.ExperienceYears)
}

func TestExtractIsIdempotent(t *testing.T) {
	e := New(&fakeRecognizer{people: []string{"Someone"}}, WithClock(fixedClock(2024)))

	first := e.Extract(context.Background(), sampleCV)
	second := e.Extract(context.Background(), sampleCV)
	assert.Equal(t, first, second)
}

func TestExtractEmptyText(t *testing.T) {
	rec := &fakeRecognizer{people: []string{"Ghost"}}
	p := New(rec).Extract(context.Background(), "")

	assert.Nil(t, p.Name)
	assert.Nil(t, p.Email)
	assert.Nil(t, p.Phone)
	assert.Zero(t, p.Skills.Len())
	assert.Zero(t, p.ExperienceYears)
	assert.Zero(t, rec.calls, "recognizer should not run on empty text")
}

func TestNameFallsBackToRecognizer(t *testing.T) {
	text := "CURRICULUM VITAE\nsoftware engineer\nworked with Maria Garcia Lopez at Acme"

	rec := &fakeRecognizer{people: []string{"  ", "Maria Garcia Lopez"}}
	p := New(rec).Extract(context.Background(), text)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Maria Garcia Lopez", *p.Name)

	failing := &fakeRecognizer{err: errors.New("model crashed")}
	p = New(failing).Extract(context.Background(), text)
	assert.Nil(t, p.Name)

	p = New(nil).Extract(context.Background(), text)
	assert.Nil(t, p.Name)
}

func TestHeaderNameStrategy(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "first line", text: "John Smith\nDeveloper", want: "John Smith", ok: true},
		{name: "padded line", text: "\n\n   Amal Idrissi  \n", want: "Amal Idrissi", ok: true},
		{name: "sixth non-empty line", text: "a\nb\n\nc\nd\ne\nSara Benali", want: "Sara Benali", ok: true},
		{name: "seventh non-empty line ignored", text: "a\nb\nc\nd\ne\nf\nSara Benali", ok: false},
		{name: "upper case header", text: "JOHN SMITH", ok: false},
		{name: "three tokens", text: "John Paul Smith", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HeaderNameStrategy{}.Attempt(context.Background(), tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChainFirstMatchWins(t *testing.T) {
	rec := &fakeRecognizer{people: []string{"Entity Name"}}
	chain := Chain{HeaderNameStrategy{}, NewEntityStrategy(rec, nil)}

	v, strategy, ok := chain.Run(context.Background(), "Header Name\nmore text")
	require.True(t, ok)
	assert.Equal(t, "Header Name", v)
	assert.Equal(t, "header-pattern", strategy)
	assert.Zero(t, rec.calls, "later strategies must not run after a match")

	v, strategy, ok = chain.Run(context.Background(), "no header here")
	require.True(t, ok)
	assert.Equal(t, "Entity Name", v)
	assert.Equal(t, "named-entity", strategy)

	_, _, ok = Chain{}.Run(context.Background(), "anything")
	assert.False(t, ok)
}

func TestContactPatterns(t *testing.T) {
	ctx := context.Background()

	email, ok := EmailStrategy().Attempt(ctx, "Contact: first.last+cv@mail.example.org or other@x.io")
	require.True(t, ok)
	assert.Equal(t, "first.last+cv@mail.example.org", email)

	_, ok = EmailStrategy().Attempt(ctx, "no address @ here")
	assert.False(t, ok)

	phone, ok := PhoneStrategy().Attempt(ctx, "Tel: +212 612-345-678")
	require.True(t, ok)
	assert.Equal(t, "+212 612-345-678", phone)

	phone, ok = PhoneStrategy().Attempt(ctx, "Phone (555) 123.4567 ext")
	require.True(t, ok)
	assert.Equal(t, "555) 123.4567", phone)

	_, ok = PhoneStrategy().Attempt(ctx, "no digits")
	assert.False(t, ok)
}

func TestSectionSkills(t *testing.T) {
	text := "Summary\nPython fan\n\nTechnical Skills:\nGo, Kubernetes • AWS - C\nSoft skills\nTeamwork\n\nExcel"

	assert.Equal(t, []string{"Kubernetes", "AWS", "Teamwork"}, SectionSkills(text))
	assert.Nil(t, SectionSkills("no section here"))
}

func TestVocabularySkillsSubstrings(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Designed payment systems in JavaScript", []string{"Java", "Design"}},
		{"Worked on AI and NLP", nil},
		{"Research in Machine Learning and natural language processing.", []string{"Machine learning", "Natural language processing"}},
		{"MySQL, GitHub", []string{"Sql", "Git"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, VocabularySkills(tt.text))
		})
	}
}

func TestExtractSkillsCountsSubstringMatches(t *testing.T) {
	skills := ExtractSkills("Designed payment systems in JavaScript")

	assert.Equal(t, 2, skills.Len())
	assert.True(t, skills.Has("java"))
	assert.True(t, skills.Has("design"))
	assert.Equal(t, 0, ExtractSkills("Worked on AI and NLP").Len())
}

func TestSkillsAppearOnce(t *testing.T) {
	text := "SKILLS\npython, Leadership\n\nUsed Python and leadership daily."

	skills := ExtractSkills(text)
	assert.Equal(t, 2, skills.Len())
	assert.True(t, skills.Has("PYTHON"))
	assert.True(t, skills.Has("leadership"))
}

func TestExperienceYears(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "no experience section",
			text: "Jane Doe\n2015-2020 somewhere",
			want: 0,
		},
		{
			name: "ranges up to present",
			text: "Experience\n2019-2021 Engineer\n2021-present Senior Engineer\nEducation\n2014-2018 University",
			want: 5,
		},
		{
			name: "current token and dashes",
			text: "Work experience\n2018 – 2020 Analyst\n2020 to current Lead",
			want: 6,
		},
		{
			name: "sub-year entries dropped",
			text: "Experience\n2022-2022 Intern\n2023 2024 Contractor",
			want: 1,
		},
		{
			name: "overlapping ranges summed",
			text: "Experience\n2015-2020 Job A\n2016-2019 Job B",
			want: 8,
		},
		{
			name: "earliest stop token wins",
			text: "Experience\n2010-2012 Dev\nProjets\n2012-2015 Side\nEducation\n2000-2004",
			want: 2,
		},
		{
			name: "education before experience",
			text: "Education\n2000-2004 School\nExperience\n2015-2020 Dev",
			want: 5,
		},
		{
			name: "certifications truncate",
			text: "EXPERIENCE\n2011-2013 Ops\nCertifications\n2020-2022 Cloud",
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExperienceYears(tt.text, 2024))
		})
	}
}

func TestPreflight(t *testing.T) {
	assert.NoError(t, New(nil).Preflight(context.Background()))

	bad := New(&fakeRecognizer{err: &models.ConfigurationError{Capability: "named-entity model", Err: errors.New("missing")}})
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, bad.Preflight(context.Background()), &cfgErr)
}
