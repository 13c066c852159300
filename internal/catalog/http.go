package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Catalog *Repository
	Log     *zap.Logger
}

type productResponse struct {
	Success bool     `json:"success"`
	Product *Product `json:"product,omitempty"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// Routes serves the catalog relative to its mount point.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Get("/{id}", s.get)
	r.Put("/{id}", s.update)
	r.Delete("/{id}", s.delete)
	r.Post("/{id}/adjust", s.adjust)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.Search(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, found := s.Catalog.Find(r.Context(), id)
	if !found {
		kit.WriteFailure(w, r, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := decodeJSON(w, r, &d); err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := s.Catalog.Create(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, productResponse{Success: true, Product: &p})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var d Draft
	if err := decodeJSON(w, r, &d); err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := s.Catalog.Update(r.Context(), id, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{Success: true, Product: &p})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := s.Catalog.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{Success: true})
}

func (s *Server) adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := s.Catalog.AdjustQuantity(r.Context(), id, req.Delta)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{Success: true, Product: &p})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *kit.ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteFailure(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrNotFound):
		kit.WriteFailure(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		kit.WriteFailure(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, kv.ErrQuotaExceeded):
		kit.WriteFailure(w, r, http.StatusInsufficientStorage, "storage is full")
	default:
		if s.Log != nil {
			s.Log.Error("catalog request failed", zap.Error(err), zap.String("path", r.URL.Path))
		}
		kit.WriteFailure(w, r, http.StatusInternalServerError, "server error")
	}
}

func productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
