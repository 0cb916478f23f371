package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/engine"
	"github.com/inkroot/folio/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	resp, err := s.engine.Search(r.Context(), &req)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type addDocumentRequest struct {
	ID       string                 `json:"id" validate:"omitempty,max=256"`
	Title    string                 `json:"title" validate:"omitempty,max=512"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	doc := &models.Document{
		ID:       req.ID,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	}
	if err := s.store.SaveDocument(r.Context(), doc); err != nil {
		s.logger.Error("store document failed", zap.String("id", doc.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.engine.ProcessDocument(doc); err != nil {
		s.logger.Error("process document failed", zap.String("id", doc.ID), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "status": "indexed"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	docs, err := s.store.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.store.CountDocuments(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	err := s.engine.RemoveDocument(id)
	if err != nil && !errors.Is(err, engine.ErrDocumentNotFound) {
		s.respondDomainError(w, err)
		return
	}
	if errors.Is(err, engine.ErrDocumentNotFound) {
		// The engine never saw it; 404 unless the store still has a body
		// to clean up.
		if _, getErr := s.store.GetDocument(r.Context(), id); getErr != nil {
			s.respondDomainError(w, err)
			return
		}
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleDocumentMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, err := s.engine.DocumentMetadata(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "metadata": meta})
}

func (s *Server) handleUpdateDocumentMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var meta map[string]interface{}
	if !s.decode(w, r, &meta) {
		return
	}
	if len(meta) == 0 {
		s.respondError(w, http.StatusBadRequest, "metadata cannot be empty")
		return
	}
	if err := s.engine.UpdateDocumentMetadata(id, meta); err != nil {
		s.respondDomainError(w, err)
		return
	}
	updated, err := s.engine.DocumentMetadata(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "metadata": updated})
}

func (s *Server) handleDocumentTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tgs, err := s.engine.DocumentTags(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "tags": tgs})
}

func (s *Server) handleTagDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tagID := chi.URLParam(r, "tagID")
	if err := s.engine.TagDocument(id, tagID); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "tag_id": tagID, "status": "tagged"})
}

func (s *Server) handleUntagDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tagID := chi.URLParam(r, "tagID")
	if err := s.engine.UntagDocument(id, tagID); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "tag_id": tagID, "status": "untagged"})
}

func (s *Server) handleSimilarDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := queryInt(r, "limit", 0)
	similar, err := s.engine.SimilarDocuments(id, limit)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "similar": similar})
}

// queryInt reads an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
