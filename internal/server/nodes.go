package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/hierarchy"
)

type createNodeRequest struct {
	Name       string                 `json:"name" validate:"required,max=512"`
	Type       string                 `json:"type" validate:"required,oneof=folder document"`
	ParentID   string                 `json:"parent_id"`
	DocumentID string                 `json:"document_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	node, err := s.engine.CreateNode(req.Name, req.Type, req.ParentID, req.DocumentID, req.Metadata)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.logger.Debug("node created",
		zap.String("id", node.ID),
		zap.String("name", node.Name),
		zap.String("type", node.Type))
	s.respondJSON(w, http.StatusCreated, node)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	node, err := s.engine.Node(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

type updateNodeRequest struct {
	Name     string                 `json:"name" validate:"omitempty,max=512"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateNodeRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	node, err := s.engine.UpdateNode(id, hierarchy.NodeUpdate{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recursive := r.URL.Query().Get("recursive") == "true"
	if err := s.engine.DeleteNode(id, recursive); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type moveNodeRequest struct {
	ParentID string `json:"parent_id"`
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.MoveNode(id, req.ParentID); err != nil {
		s.respondDomainError(w, err)
		return
	}
	node, err := s.engine.Node(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

func (s *Server) handleNodePath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path, err := s.engine.NodePath(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "path": path})
}

func (s *Server) handleNodeDescendants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nodes, err := s.engine.NodeDescendants(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"descendants": nodes,
		"count":       len(nodes),
	})
}

func (s *Server) handleNodeSiblings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nodes, err := s.engine.NodeSiblings(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"siblings": nodes,
		"count":    len(nodes),
	})
}

func (s *Server) handleSearchNodes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	typeFilter := r.URL.Query().Get("type")
	nodes := s.engine.SearchNodes(query, typeFilter, nil)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes, "count": len(nodes)})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree := s.engine.Tree()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"tree": tree})
}
