package resume

import (
	"strings"
	"testing"

	"resumeforge/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildResumeSectionPromptSummary(t *testing.T) {
	profile := UserProfile{JobTitle: "Backend Engineer", Experience: "5", Skills: []string{"Go", "SQL"}}

	prompt := BuildResumeSectionPrompt("summary", profile)

	assert.Equal(t, "Create a professional resume summary for a Backend Engineer with 5 years of experience in Go, SQL. "+
		"Focus on achievements and value proposition.", prompt)
}

func TestBuildResumeSectionPromptDefaults(t *testing.T) {
	empty := UserProfile{}

	tests := []struct {
		section  string
		contains []string
	}{
		{"summary", []string{"for a professional with 0 years", "in various skills."}},
		{"experience", []string{"a professional role at previous company."}},
		{"skills", []string{"for a professional: various skills."}},
		{"education", []string{"align with career goals."}},
		{"projects", []string{"abilities for a professional."}},
		{"objective", []string{"for a professional with 0 years of experience."}},
		{"achievements", []string{"with skills in various areas."}},
	}

	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			prompt := BuildResumeSectionPrompt(tt.section, empty)
			for _, fragment := range tt.contains {
				assert.Contains(t, prompt, fragment)
			}
		})
	}
}

func TestBuildResumeSectionPromptUnknownSectionIsSummary(t *testing.T) {
	profile := UserProfile{JobTitle: "Designer", Skills: []string{"Figma"}}

	assert.Equal(t, BuildResumeSectionPrompt("summary", profile), BuildResumeSectionPrompt("hobbies", profile))
	assert.Equal(t, BuildResumeSectionPrompt("summary", profile), BuildResumeSectionPrompt("", profile))
	assert.Equal(t, BuildResumeSectionPrompt("skills", profile), BuildResumeSectionPrompt(" Skills ", profile))
}

func TestPromptBuildersAreDeterministic(t *testing.T) {
	profile := UserProfile{Name: "Ada", JobTitle: "Engineer", Skills: []string{"Go"}, PreviousRoles: []string{"Intern"}}

	for _, section := range Sections {
		assert.Equal(t, BuildResumeSectionPrompt(string(section), profile), BuildResumeSectionPrompt(string(section), profile))
	}
	assert.Equal(t, BuildCoverLetterPrompt("Go role", profile), BuildCoverLetterPrompt("Go role", profile))
	assert.Equal(t, BuildSuggestionsPrompt("skills", "Go", &profile), BuildSuggestionsPrompt("skills", "Go", &profile))
}

func TestBuildCoverLetterPrompt(t *testing.T) {
	prompt := BuildCoverLetterPrompt("Senior Go developer at Acme", UserProfile{
		Name:          "Grace",
		Experience:    "8",
		Skills:        []string{"Go", "Kubernetes"},
		PreviousRoles: []string{"SRE", "Platform Engineer"},
	})

	assert.True(t, strings.HasPrefix(prompt, "Create a compelling cover letter for this job:\nSenior Go developer at Acme\n"))
	assert.Contains(t, prompt, "- Name: Grace\n")
	assert.Contains(t, prompt, "- Experience: 8 years\n")
	assert.Contains(t, prompt, "- Skills: Go, Kubernetes\n")
	assert.Contains(t, prompt, "- Previous roles: SRE, Platform Engineer\n")
	assert.Contains(t, prompt, "- Job Title: Professional\n")

	defaults := BuildCoverLetterPrompt("x", UserProfile{})
	assert.Contains(t, defaults, "- Name: Applicant\n")
	assert.Contains(t, defaults, "- Skills: Various skills\n")
	assert.Contains(t, defaults, "- Previous roles: Previous experience\n")
}

func TestBuildATSOptimizationPrompt(t *testing.T) {
	prompt := BuildATSOptimizationPrompt("Built APIs in Go", "Needs Go and gRPC")

	assert.Contains(t, prompt, "Job Description: Needs Go and gRPC\n")
	assert.Contains(t, prompt, "Resume Content: Built APIs in Go\n")
	assert.Contains(t, prompt, "6. Optimize bullet points with action verbs and metrics")
}

func TestBuildJobAnalysisPrompt(t *testing.T) {
	prompt := BuildJobAnalysisPrompt("  Staff engineer, remote  ")

	assert.Contains(t, prompt, "Job Description: Staff engineer, remote\n")
	assert.Contains(t, prompt, "5. Salary/benefit information (if mentioned)")
}

func TestBuildSuggestionsPrompt(t *testing.T) {
	withProfile := BuildSuggestionsPrompt("experience", "Did things", &UserProfile{JobTitle: "PM"})
	assert.Contains(t, withProfile, "Analyze this experience section and provide 5 specific improvement suggestions")
	assert.Contains(t, withProfile, `User Context: {"jobTitle":"PM"}`)

	withoutProfile := BuildSuggestionsPrompt("experience", "Did things", nil)
	assert.Contains(t, withoutProfile, "User Context: No additional context")
}

func TestSuggestionTips(t *testing.T) {
	tips := SuggestionTips()

	assert.Len(t, tips, 4)
	for _, section := range TipSections() {
		assert.Len(t, tips[section], 5, section)
	}

	tips[SectionSummary][0] = "changed"
	assert.NotEqual(t, "changed", SuggestionTips()[SectionSummary][0])
}

func TestTaskSettingsFromConfig(t *testing.T) {
	cfg := config.TasksConfig{
		CoverLetter: config.TaskConfig{MaxTokens: 600, Temperature: 0.3, TopP: 0.9},
		JobAnalysis: config.TaskConfig{SystemPrompt: "Custom analyst."},
	}

	settings := TaskSettingsFromConfig(cfg)

	assert.Equal(t, 600, settings[TaskCoverLetter].MaxTokens)
	assert.Equal(t, 0.3, settings[TaskCoverLetter].Temperature)
	assert.Equal(t, DefaultTaskSettings()[TaskCoverLetter].SystemPrompt, settings[TaskCoverLetter].SystemPrompt)
	assert.Equal(t, "Custom analyst.", settings[TaskJobAnalysis].SystemPrompt)
	assert.Equal(t, 1500, settings[TaskJobAnalysis].MaxTokens)
	assert.Equal(t, 2000, settings[TaskATSOptimization].MaxTokens)
	assert.Equal(t, 0.6, settings[TaskATSOptimization].Temperature)
}
