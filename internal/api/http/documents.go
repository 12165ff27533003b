package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/AHsytraka/concours-app/internal/auth/middleware"
	"github.com/AHsytraka/concours-app/internal/contest"
	"github.com/AHsytraka/concours-app/internal/policy"
	"github.com/AHsytraka/concours-app/internal/storage"
)

// MountDocuments wires transcript upload/download under /documents.
func MountDocuments(r chi.Router, bs storage.BlobStore, store contest.Store) {
	// POST /documents/{applicationID} — the applicant uploads their transcript
	r.Post("/{applicationID}", func(w http.ResponseWriter, r *http.Request) {
		applicationID := chi.URLParam(r, "applicationID")
		a, err := store.GetApplication(r.Context(), applicationID)
		if err != nil {
			if errors.Is(err, contest.ErrApplicationNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Candidates may only touch their own application; staff may replace
		// a document on any.
		sub := authmw.SubjectFromContext(r.Context())
		role := policy.RoleFromContext(r.Context())
		if role == policy.RoleStudent && a.CandidateID != sub {
			http.Error(w, "not your application", http.StatusForbidden)
			return
		}

		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := "applications/" + applicationID + "/transcript.pdf"
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := store.AttachTranscript(r.Context(), applicationID, key); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp := map[string]string{"key": key}
		if u, err := bs.SignedURL(key); err == nil {
			resp["url"] = u
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	// GET /documents/*  -> returns the blob at whatever follows /documents/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		key = strings.TrimPrefix(key, "/")
		if policy.RoleFromContext(r.Context()) == policy.RoleStudent && !ownsDocument(r, store, key) {
			http.Error(w, "not your document", http.StatusForbidden)
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}

// ownsDocument checks that a candidate only fetches documents attached to
// their own applications. Keys look like applications/{id}/transcript.pdf.
func ownsDocument(r *http.Request, store contest.Store, key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[0] != "applications" {
		return false
	}
	a, err := store.GetApplication(r.Context(), parts[1])
	if err != nil {
		return false
	}
	return a.CandidateID == authmw.SubjectFromContext(r.Context())
}
