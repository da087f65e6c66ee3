package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadTaskPromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	coverLetterPrompt := "You write short, warm cover letters."
	promptFile := filepath.Join(tempDir, "cover_letter.md")
	if err := os.WriteFile(promptFile, []byte("\n"+coverLetterPrompt+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create prompt file: %v", err)
	}

	config := &Config{}
	config.AI.Tasks.CoverLetter.SystemPrompt = "inline prompt"
	config.AI.Tasks.CoverLetter.SystemPromptFile = promptFile
	config.AI.Tasks.Section.SystemPrompt = "section prompt"

	if err := config.loadTaskPromptFiles(); err != nil {
		t.Fatalf("Failed to load task prompts: %v", err)
	}

	if config.AI.Tasks.CoverLetter.SystemPrompt != coverLetterPrompt {
		t.Errorf("Expected file content to replace inline prompt, got %q", config.AI.Tasks.CoverLetter.SystemPrompt)
	}
	if config.AI.Tasks.Section.SystemPrompt != "section prompt" {
		t.Errorf("Expected task without file to keep its prompt, got %q", config.AI.Tasks.Section.SystemPrompt)
	}
	if config.AI.Tasks.CoverLetter.SystemPromptFile != promptFile {
		t.Error("Expected prompt file path to be preserved")
	}
}

func TestLoadTaskPromptFilesErrors(t *testing.T) {
	tempDir := t.TempDir()

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty file: %v", err)
	}

	tests := []struct {
		name        string
		setup       func(c *Config)
		errorSubstr string
	}{
		{
			name: "missing files are reported together",
			setup: func(c *Config) {
				c.AI.Tasks.JobAnalysis.SystemPromptFile = filepath.Join(tempDir, "missing1.md")
				c.AI.Tasks.Suggestions.SystemPromptFile = filepath.Join(tempDir, "missing2.md")
			},
			errorSubstr: "missing2.md",
		},
		{
			name: "empty file",
			setup: func(c *Config) {
				c.AI.Tasks.ATSOptimization.SystemPromptFile = emptyFile
			},
			errorSubstr: "is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			tt.setup(config)

			err := config.loadTaskPromptFiles()
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.errorSubstr) {
				t.Errorf("Expected error containing %q, got %v", tt.errorSubstr, err)
			}
		})
	}
}
