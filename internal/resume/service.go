package resume

import (
	"context"
	"path"
	"strings"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/storage"
)

// Service combines prompt building with the AI and storage services. Every
// method takes an optional provider: set, it is used without fallback;
// empty, providers are tried in priority order.
type Service struct {
	ai      *ai.Service
	storage *storage.Service
	tasks   map[Task]TaskSettings
	now     Clock
	logger  *errors.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock used for document paths.
func WithClock(now Clock) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(aiService *ai.Service, storageService *storage.Service, tasks map[Task]TaskSettings, logger *errors.Logger, opts ...Option) *Service {
	if tasks == nil {
		tasks = DefaultTaskSettings()
	}
	s := &Service{
		ai:      aiService,
		storage: storageService,
		tasks:   tasks,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) generate(ctx context.Context, task Task, prompt, provider string) (*ai.GenerationResult, error) {
	settings, ok := s.tasks[task]
	if !ok {
		settings = DefaultTaskSettings()[task]
	}

	result, err := s.ai.Generate(ctx, settings.options().Request(prompt), provider)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resume content generated",
		"task", string(task),
		"provider_used", result.ProviderUsed,
		"explicit_provider", provider != "")
	return result, nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, name+" is required", nil)
	}
	return nil
}

// GenerateSection writes content for one resume section.
func (s *Service) GenerateSection(ctx context.Context, section string, profile UserProfile, provider string) (*ai.GenerationResult, error) {
	if err := required("section", section); err != nil {
		return nil, err
	}
	return s.generate(ctx, TaskSection, BuildResumeSectionPrompt(section, profile), provider)
}

func (s *Service) GenerateCoverLetter(ctx context.Context, jobDescription string, profile UserProfile, provider string) (*ai.GenerationResult, error) {
	if err := required("job description", jobDescription); err != nil {
		return nil, err
	}
	return s.generate(ctx, TaskCoverLetter, BuildCoverLetterPrompt(jobDescription, profile), provider)
}

func (s *Service) OptimizeForATS(ctx context.Context, resumeText, jobDescription, provider string) (*ai.GenerationResult, error) {
	if err := required("resume content", resumeText); err != nil {
		return nil, err
	}
	if err := required("job description", jobDescription); err != nil {
		return nil, err
	}
	return s.generate(ctx, TaskATSOptimization, BuildATSOptimizationPrompt(resumeText, jobDescription), provider)
}

func (s *Service) AnalyzeJob(ctx context.Context, jobDescription, provider string) (*ai.GenerationResult, error) {
	if err := required("job description", jobDescription); err != nil {
		return nil, err
	}
	return s.generate(ctx, TaskJobAnalysis, BuildJobAnalysisPrompt(jobDescription), provider)
}

// Suggest asks for improvements to an existing section. profile may be nil.
func (s *Service) Suggest(ctx context.Context, section, content string, profile *UserProfile, provider string) (*ai.GenerationResult, error) {
	if err := required("resume section", section); err != nil {
		return nil, err
	}
	if err := required("content", content); err != nil {
		return nil, err
	}
	return s.generate(ctx, TaskSuggestions, BuildSuggestionsPrompt(section, content, profile), provider)
}

// UploadResume stores the rendered resume of resumeID.
func (s *Service) UploadResume(ctx context.Context, ownerID, resumeID string, file storage.Upload, provider string) (*storage.ObjectRef, error) {
	if err := required("resume id", resumeID); err != nil {
		return nil, err
	}
	return s.Store(ctx, CategoryResume, ownerID, resumeID, file, provider)
}

func (s *Service) UploadProfilePhoto(ctx context.Context, ownerID string, file storage.Upload, provider string) (*storage.ObjectRef, error) {
	return s.Store(ctx, CategoryProfilePhoto, ownerID, "", file, provider)
}

// UploadDocument stores a supporting document. docType names the file and
// defaults to "document".
func (s *Service) UploadDocument(ctx context.Context, ownerID, docType string, file storage.Upload, provider string) (*storage.ObjectRef, error) {
	return s.Store(ctx, CategoryDocument, ownerID, docType, file, provider)
}

// Store uploads an artifact of any category.
func (s *Service) Store(ctx context.Context, category Category, ownerID, artifactID string, file storage.Upload, provider string) (*storage.ObjectRef, error) {
	objectPath, err := s.objectPath(category, ownerID, artifactID, file)
	if err != nil {
		return nil, err
	}
	return s.storage.Upload(ctx, file, objectPath, provider)
}

// SyncToAll uploads an artifact to every registered storage backend.
func (s *Service) SyncToAll(ctx context.Context, category Category, ownerID, artifactID string, file storage.Upload) ([]storage.ObjectRef, []error, error) {
	objectPath, err := s.objectPath(category, ownerID, artifactID, file)
	if err != nil {
		return nil, nil, err
	}
	return s.storage.SyncToAll(ctx, file, objectPath)
}

func (s *Service) objectPath(category Category, ownerID, artifactID string, file storage.Upload) (string, error) {
	if err := required("owner id", ownerID); err != nil {
		return "", err
	}
	if category == CategoryResume {
		if err := required("resume id", artifactID); err != nil {
			return "", err
		}
	}
	for _, id := range []string{ownerID, artifactID} {
		if strings.ContainsAny(id, "/\\") || id == ".." {
			return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "identifiers must not contain path separators: "+id, nil)
		}
	}
	return ResolveStoragePath(category, ownerID, artifactID, path.Ext(file.Filename), s.now), nil
}
