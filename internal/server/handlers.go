package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/ranking"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

type notFoundResponse struct {
	Error       string   `json:"error"`
	Title       string   `json:"title"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleRecommendGet(w http.ResponseWriter, r *http.Request) {
	query := models.RecommendQuery{Title: r.URL.Query().Get("title")}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		query.K = k
	}
	s.recommend(w, r, &query)
}

func (s *Server) handleRecommendPost(w http.ResponseWriter, r *http.Request) {
	var query models.RecommendQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.recommend(w, r, &query)
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request, query *models.RecommendQuery) {
	if query.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.logger.Debug("recommend request", zap.String("title", query.Title), zap.Int("k", query.K))
	response, err := s.engine.Recommend(r.Context(), query)
	if err != nil {
		var nf *ranking.NotFoundError
		switch {
		case errors.As(err, &nf):
			suggestions := nf.Suggestions
			if suggestions == nil {
				suggestions = []string{}
			}
			s.respondJSON(w, http.StatusNotFound, notFoundResponse{
				Error:       err.Error(),
				Title:       nf.Title,
				Suggestions: suggestions,
			})
		case errors.Is(err, search.ErrNotReady):
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("recommend failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	q := r.URL.Query().Get("q")
	titles, err := s.engine.Titles(r.Context(), q, limit)
	if err != nil {
		if errors.Is(err, search.ErrNotReady) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("titles failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if titles == nil {
		titles = []*models.TitleMatch{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":  q,
		"titles": titles,
		"total":  len(titles),
	})
}

func (s *Server) handleCorpora(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "storage not enabled")
		return
	}
	corpora, err := s.storage.ListCorpora(r.Context())
	if err != nil {
		s.logger.Error("list corpora failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if corpora == nil {
		corpora = []*models.CorpusInfo{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"corpora": corpora})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{}
	if s.reload != nil {
		result, err := s.reload(ctx)
		if err != nil {
			s.logger.Error("reload failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if result != nil {
			resp["import"] = result
		}
	} else if err := s.engine.Reload(ctx); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNoCorpus) {
			status = http.StatusConflict
		}
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, status, err.Error())
		return
	}
	st := s.engine.Status()
	resp["status"] = "reloaded"
	resp["corpus_version"] = st.CorpusVersion
	resp["item_count"] = st.ItemCount
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{
		"engine": s.engine.Status(),
	}
	if s.storage != nil {
		n, err := s.storage.CountCorpora(ctx)
		if err != nil {
			s.logger.Error("status: count corpora failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["stored_corpora"] = n
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"catalog_path":     s.config.Catalog.Path,
			"catalog_watch":    s.config.Catalog.Watch,
			"database_path":    s.config.Storage.DatabasePath,
			"matrix_cache_dir": s.config.Storage.MatrixCacheDir,
			"min_token_length": s.config.Model.MinTokenLength,
			"default_k":        s.config.Recommend.DefaultK,
			"max_k":            s.config.Recommend.MaxK,
			"cache_capacity":   s.config.Cache.Capacity,
		}
		diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.MatrixCacheDir)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
