package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Inventario/pkg/kit"
)

type Server struct {
	History *Log
	Log     *zap.Logger
}

type entry struct {
	Record
	Label  string `json:"label"`
	Amount *int   `json:"amount,omitempty"`
}

// Routes serves the log relative to its mount point.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/users", s.users)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, err := ParseDay(q.Get("date"), s.History.Location())
	if err != nil {
		if s.Log != nil {
			s.Log.Info("bad history date filter", zap.Error(err))
		}
		kit.WriteFailure(w, r, http.StatusBadRequest, "invalid date")
		return
	}

	records := s.History.Query(r.Context(), Filter{User: q.Get("user"), Date: day})

	out := make([]entry, 0, len(records))
	for _, rec := range records {
		e := entry{Record: rec, Label: rec.Action.Label()}
		if n, ok := rec.Amount(); ok {
			e.Amount = &n
		}
		out = append(out, e)
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.History.DistinctUsers(r.Context()))
}
