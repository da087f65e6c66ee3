package server

import (
	"net/http"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/resume"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type generateRequest struct {
	Section  string              `json:"section"`
	UserInfo *resume.UserProfile `json:"userInfo"`
	Provider string              `json:"provider"`
}

type coverLetterRequest struct {
	JobDescription string              `json:"jobDescription"`
	UserInfo       *resume.UserProfile `json:"userInfo"`
	Provider       string              `json:"provider"`
}

type optimizeRequest struct {
	ResumeContent  string `json:"resumeContent"`
	JobDescription string `json:"jobDescription"`
	Provider       string `json:"provider"`
}

type analyzeRequest struct {
	JobDescription string `json:"jobDescription"`
	Provider       string `json:"provider"`
}

type suggestionsRequest struct {
	ResumeSection string              `json:"resumeSection"`
	Content       string              `json:"content"`
	UserInfo      *resume.UserProfile `json:"userInfo"`
	Provider      string              `json:"provider"`
}

func (s *Server) startSpan(r *http.Request, operation string, provider string) (*http.Request, trace.Span) {
	ctx, span := s.om.Tracer("resumeforge.api").Start(r.Context(), "api."+operation)
	span.SetAttributes(
		attribute.String("operation", operation),
		attribute.String("provider.requested", providerOrAuto(provider)),
	)
	return r.WithContext(ctx), span
}

func providerOrAuto(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "auto"
	}
	return provider
}

// generationFields are the response fields shared by every generation.
func (s *Server) generationFields(result *ai.GenerationResult) map[string]any {
	fields := map[string]any{
		"provider":  result.ProviderUsed,
		"timestamp": s.timestamp(),
	}
	if result.Model != "" {
		fields["model"] = result.Model
	}
	if result.Usage != nil {
		fields["usage"] = result.Usage
	}
	return fields
}

func (s *Server) aiProvidersHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, providersResponse(s.ai.ListAvailableProviders(), s.ai.Priority()))
}

func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Section) == "" || req.UserInfo == nil {
		writeErrorResponse(w, "Missing required fields: section and userInfo", "", http.StatusBadRequest)
		return
	}

	r, span := s.startSpan(r, "generate", req.Provider)
	defer span.End()
	span.SetAttributes(attribute.String("resume.section", req.Section))

	result, err := s.resume.GenerateSection(r.Context(), req.Section, *req.UserInfo, req.Provider)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to generate content", err)
		return
	}

	response := s.generationFields(result)
	response["content"] = result.Content
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) coverLetterHandler(w http.ResponseWriter, r *http.Request) {
	var req coverLetterRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" || req.UserInfo == nil {
		writeErrorResponse(w, "Missing required fields: jobDescription and userInfo", "", http.StatusBadRequest)
		return
	}

	r, span := s.startSpan(r, "cover_letter", req.Provider)
	defer span.End()

	result, err := s.resume.GenerateCoverLetter(r.Context(), req.JobDescription, *req.UserInfo, req.Provider)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to generate cover letter", err)
		return
	}

	response := s.generationFields(result)
	response["coverLetter"] = result.Content
	response["wordCount"] = len(strings.Fields(result.Content))
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) optimizeHandler(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ResumeContent) == "" || strings.TrimSpace(req.JobDescription) == "" {
		writeErrorResponse(w, "Missing required fields: resumeContent and jobDescription", "", http.StatusBadRequest)
		return
	}

	r, span := s.startSpan(r, "optimize", req.Provider)
	defer span.End()
	span.SetAttributes(attribute.Int("request.resume_length", len(req.ResumeContent)))

	result, err := s.resume.OptimizeForATS(r.Context(), req.ResumeContent, req.JobDescription, req.Provider)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to optimize resume", err)
		return
	}

	response := s.generationFields(result)
	response["optimizedResume"] = result.Content
	response["originalLength"] = len(req.ResumeContent)
	response["optimizedLength"] = len(result.Content)
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		writeErrorResponse(w, "Missing required field: jobDescription", "", http.StatusBadRequest)
		return
	}

	r, span := s.startSpan(r, "analyze", req.Provider)
	defer span.End()

	result, err := s.resume.AnalyzeJob(r.Context(), req.JobDescription, req.Provider)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to analyze job description", err)
		return
	}

	response := s.generationFields(result)
	response["analysis"] = result.Content
	response["jobLength"] = len(req.JobDescription)
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ResumeSection) == "" || strings.TrimSpace(req.Content) == "" {
		writeErrorResponse(w, "Missing required fields: resumeSection and content", "", http.StatusBadRequest)
		return
	}

	r, span := s.startSpan(r, "suggestions", req.Provider)
	defer span.End()

	result, err := s.resume.Suggest(r.Context(), req.ResumeSection, req.Content, req.UserInfo, req.Provider)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to generate suggestions", err)
		return
	}

	response := s.generationFields(result)
	response["suggestions"] = result.Content
	response["section"] = req.ResumeSection
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) suggestionTipsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestionTypes":   resume.SuggestionTips(),
		"availableSections": resume.TipSections(),
		"timestamp":         s.timestamp(),
	})
}
