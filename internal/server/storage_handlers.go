package server

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
)

const multipartMemory = 8 << 20

func (s *Server) storageProvidersHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, providersResponse(s.storage.ListAvailableProviders(), s.storage.Priority()))
}

// readUpload extracts the "file" part of a multipart request.
func readUpload(r *http.Request) (storage.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return storage.Upload{}, errors.NewValidationError(errors.ErrCodeFileTooLarge, "upload exceeds the request size limit", err)
		}
		return storage.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "expected a multipart/form-data body", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return storage.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file is required", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return storage.Upload{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded file", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}
	return storage.Upload{Data: data, ContentType: contentType, Filename: header.Filename}, nil
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if s.MaxRequestSize > 0 && r.ContentLength > s.MaxRequestSize {
		writeErrorResponse(w, "File too large",
			"upload exceeds the request size limit of "+strconv.FormatInt(s.MaxRequestSize, 10)+" bytes",
			http.StatusRequestEntityTooLarge)
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		s.writeServiceError(w, r, "Invalid upload", err)
		return
	}

	category, err := resume.ParseCategory(r.FormValue("category"))
	if err != nil {
		writeErrorResponse(w, "Invalid category", err.Error(), http.StatusBadRequest)
		return
	}
	ownerID := r.FormValue("ownerId")
	artifactID := r.FormValue("artifactId")
	preferred := r.FormValue("provider")

	r, span := s.startSpan(r, "upload", preferred)
	defer span.End()

	if sync, _ := strconv.ParseBool(r.FormValue("sync")); sync {
		s.syncUpload(w, r, category, ownerID, artifactID, upload)
		return
	}

	ref, err := s.resume.Store(r.Context(), category, ownerID, artifactID, upload, preferred)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Upload failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"path":         ref.Path,
		"key":          ref.Key,
		"url":          ref.URL,
		"providerUsed": ref.ProviderUsed,
		"size":         upload.Size(),
		"timestamp":    s.timestamp(),
	})
}

func (s *Server) syncUpload(w http.ResponseWriter, r *http.Request, category resume.Category, ownerID, artifactID string, upload storage.Upload) {
	refs, failures, err := s.resume.SyncToAll(r.Context(), category, ownerID, artifactID, upload)
	if err != nil {
		s.writeServiceError(w, r, "Sync failed", err)
		return
	}

	failed := make([]map[string]string, 0, len(failures))
	for _, f := range failures {
		failed = append(failed, map[string]string{"provider": errors.ProviderOf(f), "error": f.Error()})
	}

	status := http.StatusCreated
	if len(refs) == 0 {
		status = http.StatusBadGateway
	}
	if refs == nil {
		refs = []storage.ObjectRef{}
	}
	writeJSON(w, status, map[string]any{
		"results":   refs,
		"failures":  failed,
		"timestamp": s.timestamp(),
	})
}

func requiredQuery(r *http.Request, names ...string) (map[string]string, string) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := strings.TrimSpace(r.URL.Query().Get(name))
		if v == "" {
			missing = append(missing, name)
		}
		values[name] = v
	}
	return values, strings.Join(missing, ", ")
}

func (s *Server) fileURLHandler(w http.ResponseWriter, r *http.Request) {
	q, missing := requiredQuery(r, "provider", "path")
	if missing != "" {
		writeErrorResponse(w, "Missing required query parameters", missing, http.StatusBadRequest)
		return
	}

	url, err := s.storage.GetFileURL(r.Context(), q["provider"], q["path"])
	if err != nil {
		s.writeServiceError(w, r, "Failed to resolve file URL", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":      url,
		"provider": q["provider"],
		"path":     q["path"],
	})
}

func (s *Server) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	q, missing := requiredQuery(r, "provider", "path")
	if missing != "" {
		writeErrorResponse(w, "Missing required query parameters", missing, http.StatusBadRequest)
		return
	}

	deleted, err := s.storage.DeleteFile(r.Context(), q["provider"], q["path"])
	if err != nil {
		s.writeServiceError(w, r, "Delete failed", err)
		return
	}
	if !deleted {
		writeErrorResponse(w, "File not found", q["path"], http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": q["provider"],
		"path":     q["path"],
	})
}

// downloadHandler serves files kept by the database backends.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	providerID := strings.TrimSpace(query.Get("provider"))
	name := strings.TrimSpace(query.Get("file"))
	id := strings.TrimSpace(query.Get("id"))

	var (
		file *storage.StoredFile
		err  error
	)
	switch {
	case name != "":
		file, err = s.storage.Fetch(r.Context(), providerID, name)
	case id != "":
		file, err = s.storage.FetchByID(r.Context(), providerID, id)
	default:
		writeErrorResponse(w, "File identifier required", "file or id", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, "Download failed", err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(file.Path)}))
	if !file.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", file.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
