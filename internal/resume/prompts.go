// Package resume turns profiles and job descriptions into AI prompts and
// decides where resume artifacts are stored. The builders are pure.
package resume

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UserProfile is the applicant information prompts are built from. Every
// field is optional.
type UserProfile struct {
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	JobTitle      string   `json:"jobTitle,omitempty"`
	Experience    string   `json:"experience,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Company       string   `json:"company,omitempty"`
	PreviousRoles []string `json:"previousRoles,omitempty"`
	Education     string   `json:"education,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// Section is a resume section a prompt can be built for.
type Section string

const (
	SectionSummary      Section = "summary"
	SectionExperience   Section = "experience"
	SectionSkills       Section = "skills"
	SectionEducation    Section = "education"
	SectionProjects     Section = "projects"
	SectionObjective    Section = "objective"
	SectionAchievements Section = "achievements"
)

// Sections lists the supported sections.
var Sections = []Section{
	SectionSummary,
	SectionExperience,
	SectionSkills,
	SectionEducation,
	SectionProjects,
	SectionObjective,
	SectionAchievements,
}

func or(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func joinOr(values []string, fallback string) string {
	return or(strings.Join(values, ", "), fallback)
}

// BuildResumeSectionPrompt returns the generation prompt for section. An
// unknown section gets the summary prompt.
func BuildResumeSectionPrompt(section string, p UserProfile) string {
	jobTitle := or(p.JobTitle, "professional")

	switch Section(strings.ToLower(strings.TrimSpace(section))) {
	case SectionExperience:
		return fmt.Sprintf("Write compelling job descriptions for a %s role at %s. "+
			"Include achievements, responsibilities, and impact. Use action verbs and quantify results where possible.",
			jobTitle, or(p.Company, "previous company"))
	case SectionSkills:
		return fmt.Sprintf("Organize and enhance this skill list for a %s: %s. "+
			"Group by categories (Technical, Soft Skills, Tools) and add relevant skills.",
			jobTitle, joinOr(p.Skills, "various skills"))
	case SectionEducation:
		return fmt.Sprintf("Format and enhance education details for resume. "+
			"Include relevant coursework, honors, and achievements that align with %s goals.",
			or(p.JobTitle, "career"))
	case SectionProjects:
		return fmt.Sprintf("Write engaging project descriptions that showcase technical skills and problem-solving abilities for a %s. "+
			"Focus on technologies used, challenges overcome, and results achieved.",
			jobTitle)
	case SectionObjective:
		return fmt.Sprintf("Write a compelling career objective for a %s with %s years of experience. "+
			"Make it specific and achievement-focused.",
			jobTitle, or(p.Experience, "0"))
	case SectionAchievements:
		return fmt.Sprintf("List and describe key professional achievements for a %s with skills in %s. "+
			"Focus on measurable impact and results.",
			jobTitle, joinOr(p.Skills, "various areas"))
	default:
		return fmt.Sprintf("Create a professional resume summary for a %s with %s years of experience in %s. "+
			"Focus on achievements and value proposition.",
			jobTitle, or(p.Experience, "0"), joinOr(p.Skills, "various skills"))
	}
}

// BuildCoverLetterPrompt returns the cover letter prompt for a job.
func BuildCoverLetterPrompt(jobDescription string, p UserProfile) string {
	var b strings.Builder
	b.WriteString("Create a compelling cover letter for this job:\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n\nApplicant details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", or(p.Name, "Applicant"))
	fmt.Fprintf(&b, "- Experience: %s years\n", or(p.Experience, "0"))
	fmt.Fprintf(&b, "- Skills: %s\n", joinOr(p.Skills, "Various skills"))
	fmt.Fprintf(&b, "- Previous roles: %s\n", joinOr(p.PreviousRoles, "Previous experience"))
	fmt.Fprintf(&b, "- Job Title: %s\n", or(p.JobTitle, "Professional"))
	b.WriteString("\nMake it personalized, engaging, and highlight relevant achievements. Keep it concise and professional.")
	return b.String()
}

// BuildATSOptimizationPrompt asks for resumeText rewritten for applicant
// tracking systems.
func BuildATSOptimizationPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Optimize this resume content for ATS (Applicant Tracking Systems) based on this job description:

Job Description: %s

Resume Content: %s

Please:
1. Add relevant keywords from the job description
2. Improve formatting for ATS compatibility
3. Enhance skill matching with job requirements
4. Suggest improvements for better ATS ranking
5. Ensure proper section headers and formatting
6. Optimize bullet points with action verbs and metrics

Provide the optimized resume content with explanations for changes made.`,
		strings.TrimSpace(jobDescription), strings.TrimSpace(resumeText))
}

// BuildJobAnalysisPrompt asks for a structured breakdown of a job posting.
func BuildJobAnalysisPrompt(jobDescription string) string {
	return fmt.Sprintf(`Analyze this job description and extract:
1. Required skills and qualifications
2. Key responsibilities
3. Important keywords for ATS optimization
4. Company culture indicators
5. Salary/benefit information (if mentioned)
6. Experience level requirements

Job Description: %s

Provide a structured analysis that can help optimize a resume for this position.`,
		strings.TrimSpace(jobDescription))
}

// BuildSuggestionsPrompt asks for five improvements to an existing section.
// A nil profile is reported as missing context.
func BuildSuggestionsPrompt(section, content string, p *UserProfile) string {
	userContext := "No additional context"
	if p != nil {
		if data, err := json.Marshal(p); err == nil {
			userContext = string(data)
		}
	}

	return fmt.Sprintf(`Analyze this %s section and provide 5 specific improvement suggestions:

Content: %s

User Context: %s

Provide actionable suggestions to make this section more impactful, ATS-friendly, and professionally compelling.
Format as a numbered list with specific, implementable recommendations.`,
		or(section, string(SectionSummary)), strings.TrimSpace(content), userContext)
}

var suggestionTips = map[Section][]string{
	SectionSummary: {
		"Make your summary more quantifiable with specific metrics",
		"Include industry-specific keywords",
		"Lead with your strongest achievement",
		"Keep it concise (2-3 sentences)",
		"Match the tone to your target industry",
	},
	SectionExperience: {
		"Start bullet points with action verbs",
		"Include quantifiable results and metrics",
		"Focus on achievements rather than responsibilities",
		"Use the STAR method (Situation, Task, Action, Result)",
		"Tailor content to match job requirements",
	},
	SectionSkills: {
		"Group skills by category (Technical, Soft, Tools)",
		"Prioritize skills mentioned in job descriptions",
		"Include proficiency levels where relevant",
		"Remove outdated or irrelevant skills",
		"Add industry-specific certifications",
	},
	SectionEducation: {
		"Include relevant coursework for entry-level positions",
		"Highlight academic achievements (GPA > 3.5, honors)",
		"Add relevant projects or thesis topics",
		"Include certifications and continuing education",
		"Use reverse chronological order",
	},
}

// SuggestionTips returns a copy of the static improvement tips per section.
func SuggestionTips() map[Section][]string {
	tips := make(map[Section][]string, len(suggestionTips))
	for section, list := range suggestionTips {
		tips[section] = append([]string(nil), list...)
	}
	return tips
}

// TipSections lists the sections that have static tips, in display order.
func TipSections() []Section {
	return []Section{SectionSummary, SectionExperience, SectionSkills, SectionEducation}
}
