package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/tags"
)

type createTagRequest struct {
	Name     string                 `json:"name" validate:"required,max=256"`
	Color    string                 `json:"color" validate:"omitempty,max=64"`
	ParentID string                 `json:"parent_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	tag, err := s.engine.CreateTag(req.Name, req.Color, req.ParentID, req.Metadata)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.logger.Debug("tag created", zap.String("id", tag.ID), zap.String("name", tag.Name))
	s.respondJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tgs := s.engine.Tags()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"tags": tgs, "count": len(tgs)})
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tag, err := s.engine.Tag(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tag)
}

type updateTagRequest struct {
	Name     string                 `json:"name" validate:"omitempty,max=256"`
	Color    *string                `json:"color"`
	ParentID *string                `json:"parent_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateTagRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	tag, err := s.engine.UpdateTag(id, tags.TagUpdate{
		Name:     req.Name,
		Color:    req.Color,
		ParentID: req.ParentID,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recursive := r.URL.Query().Get("recursive") == "true"
	if err := s.engine.DeleteTag(id, recursive); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleTagDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	descendants := r.URL.Query().Get("descendants") == "true"
	docs, err := s.engine.DocumentsWithTag(id, descendants)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tag_id":    id,
		"documents": docs,
		"count":     len(docs),
	})
}
