package server

import (
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/config"
	"github.com/inkroot/folio/internal/storage"
)

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Statistics()
	stored, err := s.store.CountDocuments(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	diskBytes, err := storage.DiskUsageBytes(s.cfg.Storage.DatabasePath, s.cfg.Storage.SnapshotDir)
	if err != nil {
		s.logger.Warn("disk usage unavailable", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"engine":           stats,
		"stored_documents": stored,
		"disk_bytes":       diskBytes,
	})
}

func (s *Server) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	dir := s.cfg.Storage.SnapshotDir
	if err := s.engine.Save(dir); err != nil {
		s.logger.Error("snapshot save failed", zap.String("dir", dir), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.logger.Info("snapshot saved", zap.String("dir", dir))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "saved", "dir": dir})
}

func (s *Server) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	dir := s.cfg.Storage.SnapshotDir
	if err := s.engine.Load(dir); err != nil {
		s.logger.Error("snapshot load failed", zap.String("dir", dir), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.logger.Info("snapshot loaded", zap.String("dir", dir))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "loaded", "dir": dir})
}

func (s *Server) handleSnapshotBackup(w http.ResponseWriter, r *http.Request) {
	dir := s.cfg.Storage.SnapshotDir
	backupDir, err := s.engine.Backup(dir)
	if err != nil {
		s.logger.Error("backup failed", zap.String("dir", dir), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.logger.Info("backup created", zap.String("backup_dir", backupDir))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "backed_up", "backup_dir": backupDir})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		s.respondError(w, http.StatusNotImplemented, "reindexing is not available")
		return
	}
	n, err := s.ingestor.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "reindexed", "documents": n})
}

func (s *Server) handleWatchRootsList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "directory watching is not available")
		return
	}
	roots := s.watch.Roots()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": roots, "count": len(roots)})
}

type watchRootRequest struct {
	Path string `json:"path" validate:"required"`
	Sync *bool  `json:"sync"`
}

func (s *Server) handleWatchRootsAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "directory watching is not available")
		return
	}
	var req watchRootRequest
	if !s.decode(w, r, &req) || !s.valid(w, &req) {
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "directory does not exist: "+abs)
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "not a directory: "+abs)
		return
	}
	sync := true
	if req.Sync != nil {
		sync = *req.Sync
	}
	if err := s.watch.AddRoot(abs, sync); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("watch root added", zap.String("path", abs), zap.Bool("sync", sync))
	s.persistWatchRoots()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "watching"})
}

func (s *Server) handleWatchRootsRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "directory watching is not available")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var req watchRootRequest
		if !s.decode(w, r, &req) {
			return
		}
		path = req.Path
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.watch.RemoveRoot(abs); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("watch root removed", zap.String("path", abs))
	s.persistWatchRoots()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchRoots writes the current watch roots back to the config
// file so they survive a restart. Failures are logged, not surfaced:
// the in-memory watcher is already updated.
func (s *Server) persistWatchRoots() {
	if s.configPath == "" || s.watch == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.cfg.Watch.Directories = s.watch.Roots()
	if err := config.Save(s.configPath, s.cfg); err != nil {
		s.logger.Warn("persisting watch roots failed", zap.String("path", s.configPath), zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
