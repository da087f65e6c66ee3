package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadTaskPromptFiles replaces each task's system prompt with the content of
// its systemPromptFile, when one is configured. Every missing file is
// reported together before anything is read.
func (c *Config) loadTaskPromptFiles() error {
	tasks := c.taskRefs()

	var missing []string
	for _, task := range tasks {
		if task.cfg.SystemPromptFile == "" {
			continue
		}
		absPath, err := filepath.Abs(task.cfg.SystemPromptFile)
		if err != nil {
			missing = append(missing, fmt.Sprintf("invalid path for %s system prompt: %s", task.name, task.cfg.SystemPromptFile))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			missing = append(missing, fmt.Sprintf("%s system prompt file not found: %s", task.name, absPath))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(missing, "\n"))
	}

	loaded := 0
	for _, task := range tasks {
		if task.cfg.SystemPromptFile == "" {
			continue
		}
		content, err := loadPromptFromFile(task.cfg.SystemPromptFile, task.name)
		if err != nil {
			return err
		}
		task.cfg.SystemPrompt = content
		loaded++
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom task prompts loaded from files")
	} else {
		log.Printf("[CONFIG] Total custom task prompts loaded from files: %d", loaded)
	}
	return nil
}

type taskRef struct {
	name string
	cfg  *TaskConfig
}

func (c *Config) taskRefs() []taskRef {
	return []taskRef{
		{"section", &c.AI.Tasks.Section},
		{"coverLetter", &c.AI.Tasks.CoverLetter},
		{"atsOptimization", &c.AI.Tasks.ATSOptimization},
		{"jobAnalysis", &c.AI.Tasks.JobAnalysis},
		{"suggestions", &c.AI.Tasks.Suggestions},
	}
}

// loadPromptFromFile reads a prompt file and rejects empty content
func loadPromptFromFile(filePath, task string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", task, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", task, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", task, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s system prompt from file: %s (%d characters)", task, absPath, len(trimmed))
	return trimmed, nil
}
