package resume

import (
	"resumeforge/internal/ai"
	"resumeforge/internal/config"
)

// Task is a kind of generation with its own parameters and system prompt.
type Task string

const (
	TaskSection         Task = "section"
	TaskCoverLetter     Task = "coverLetter"
	TaskATSOptimization Task = "atsOptimization"
	TaskJobAnalysis     Task = "jobAnalysis"
	TaskSuggestions     Task = "suggestions"
)

// TaskSettings are the generation parameters of a task.
type TaskSettings struct {
	MaxTokens    int
	Temperature  float64
	TopP         float64
	SystemPrompt string
}

func (s TaskSettings) options() ai.Options {
	return ai.Options{
		SystemPrompt: s.SystemPrompt,
		MaxTokens:    s.MaxTokens,
		Temperature:  ai.Float(s.Temperature),
		TopP:         ai.Float(s.TopP),
	}
}

// DefaultTaskSettings returns the built-in settings of every task.
func DefaultTaskSettings() map[Task]TaskSettings {
	return map[Task]TaskSettings{
		TaskSection: {
			MaxTokens:    1000,
			Temperature:  0.7,
			TopP:         1,
			SystemPrompt: "You are a professional resume writer with expertise in creating compelling, ATS-friendly resume content. Always provide specific, action-oriented content that highlights achievements and value.",
		},
		TaskCoverLetter: {
			MaxTokens:    1200,
			Temperature:  0.8,
			TopP:         1,
			SystemPrompt: "You are a professional career counselor specializing in cover letter writing. Create compelling, personalized cover letters that match job requirements and highlight candidate strengths.",
		},
		TaskATSOptimization: {
			MaxTokens:    2000,
			Temperature:  0.6,
			TopP:         1,
			SystemPrompt: "You are an ATS optimization expert who understands how applicant tracking systems parse and rank resumes. Focus on keyword optimization, proper formatting, and content structure that maximizes ATS compatibility.",
		},
		TaskJobAnalysis: {
			MaxTokens:    1500,
			Temperature:  0.5,
			TopP:         1,
			SystemPrompt: "You are a job market analyst who specializes in breaking down job descriptions to help job seekers understand requirements and optimize their applications.",
		},
		TaskSuggestions: {
			MaxTokens:    800,
			Temperature:  0.7,
			TopP:         1,
			SystemPrompt: "You are a professional resume coach providing specific, actionable feedback to improve resume sections.",
		},
	}
}

// TaskSettingsFromConfig overlays configured task settings on the built-in
// ones. A task without configured max tokens keeps its defaults, and an
// empty system prompt keeps the built-in prompt.
func TaskSettingsFromConfig(cfg config.TasksConfig) map[Task]TaskSettings {
	settings := DefaultTaskSettings()
	configured := map[Task]config.TaskConfig{
		TaskSection:         cfg.Section,
		TaskCoverLetter:     cfg.CoverLetter,
		TaskATSOptimization: cfg.ATSOptimization,
		TaskJobAnalysis:     cfg.JobAnalysis,
		TaskSuggestions:     cfg.Suggestions,
	}

	for task, c := range configured {
		s := settings[task]
		if c.MaxTokens > 0 {
			s.MaxTokens = c.MaxTokens
			s.Temperature = c.Temperature
			s.TopP = c.TopP
		}
		if c.SystemPrompt != "" {
			s.SystemPrompt = c.SystemPrompt
		}
		settings[task] = s
	}
	return settings
}
