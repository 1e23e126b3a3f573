package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eternals-studio/portal/internal/authz"
	"github.com/eternals-studio/portal/internal/store/core"
	"github.com/eternals-studio/portal/internal/workflow"
)

const maxUploadBytes = 25 << 20 // 25MB

// handleUploadFile accepts multipart form data: field "file" plus optional
// "project_id" and "tier". The stored name is the generated id; the original
// name survives only in the record.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "multipart form required", 1101)
		return
	}
	src, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "file field required", 1101)
		return
	}
	defer src.Close()

	u, _ := UserFrom(r.Context())

	tier := core.FileTier(r.FormValue("tier"))
	switch tier {
	case core.TierFree, core.TierContract, core.TierPaid:
	case "":
		tier = core.TierFree
	default:
		WriteError(w, http.StatusBadRequest, "invalid_request", "unknown tier", 1101)
		return
	}

	projectID := r.FormValue("project_id")
	if projectID != "" {
		p, err := s.store.GetProject(r.Context(), projectID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "not_found", "project not found", 1404)
				return
			}
			s.internalError(w, err)
			return
		}
		if !ownsProject(u, p) {
			WriteError(w, http.StatusForbidden, "forbidden", "not your project", 1302)
			return
		}
	}

	id := uuid.NewString()
	stored := id + filepath.Ext(hdr.Filename)
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.internalError(w, err)
		return
	}
	dst, err := os.Create(filepath.Join(s.uploadDir, stored))
	if err != nil {
		s.internalError(w, err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		s.internalError(w, err)
		return
	}

	rec := &core.FileRecord{
		ID:           id,
		OriginalName: hdr.Filename,
		Filename:     stored,
		Path:         filepath.Join(s.uploadDir, stored),
		ProjectID:    projectID,
		Tier:         tier,
		UploadedBy:   u.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateFileRecord(r.Context(), rec); err != nil {
		s.internalError(w, err)
		return
	}
	if projectID != "" {
		if err := s.flow.AttachFile(r.Context(), projectID, id); err != nil {
			s.internalError(w, err)
			return
		}
	}
	WriteJSON(w, http.StatusCreated, rec)
}

// handleDownloadFile serves the stored bytes. Ownership gates apply, and the
// billing lock withholds paid-tier files from the owning client until paid.
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	rec, err := s.store.GetFileRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "file not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}

	if !authz.OwnershipExempt(u.Role) {
		if rec.ProjectID != "" {
			p, err := s.store.GetProject(r.Context(), rec.ProjectID)
			if err != nil {
				s.internalError(w, err)
				return
			}
			if p.ClientID != u.ID {
				WriteError(w, http.StatusForbidden, "forbidden", "not your file", 1302)
				return
			}
			if !workflow.FileAccessible(rec.Tier, p.Locked) {
				WriteError(w, http.StatusForbidden, "project_locked", "file withheld pending payment", 1405)
				return
			}
		} else if rec.UploadedBy != u.ID {
			WriteError(w, http.StatusForbidden, "forbidden", "not your file", 1302)
			return
		}
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.OriginalName+`"`)
	http.ServeFile(w, r, rec.Path)
}
