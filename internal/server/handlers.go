package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/vgdist/pkg/buildinfo"
	"github.com/matzehuels/vgdist/pkg/distance"
	"github.com/matzehuels/vgdist/pkg/errors"
	"github.com/matzehuels/vgdist/pkg/observability"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

const (
	kindMin = "min"
	kindMax = "max"
)

// answer is the body of a min or max query.
type answer struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reachable bool   `json:"reachable"`
	Distance  *int64 `json:"distance,omitempty"`
	Bound     *int64 `json:"bound,omitempty"`
	Saturated bool   `json:"saturated,omitempty"`
	Cached    bool   `json:"cached"`
}

type snarlResponse struct {
	Node  int64  `json:"node"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type infoResponse struct {
	Build       buildinfo.Info `json:"build"`
	ID          string         `json:"id"`
	MinID       int64          `json:"min_id"`
	MaxID       int64          `json:"max_id"`
	HasMax      bool           `json:"has_max"`
	Cap         int64          `json:"cap"`
	Nodes       int            `json:"nodes"`
	Regions     int            `json:"regions"`
	Chains      int            `json:"chains"`
	TopLevel    int            `json:"top_level_chains"`
	Depth       int            `json:"depth"`
	MatrixCells int            `json:"matrix_cells"`
	MaxVisits   int            `json:"max_visits"`
	Components  int            `json:"components"`
	Cycles      int            `json:"cycles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMin(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, kindMin, func(from, to distance.Position) (answer, error) {
		d, err := s.idx.MinDistance(from, to)
		if err != nil {
			return answer{}, err
		}
		a := answer{Reachable: d.Reachable()}
		if v, ok := d.Value(); ok {
			a.Distance = &v
		}
		return a, nil
	})
}

func (s *Server) handleMax(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, kindMax, func(from, to distance.Position) (answer, error) {
		b, err := s.idx.MaxDistance(from, to)
		if err != nil {
			return answer{}, err
		}
		v := b.Value()
		return answer{Reachable: true, Bound: &v, Saturated: b.Saturated()}, nil
	})
}

// query parses the two positions, consults the answer cache and reports the
// query to the hooks.
func (s *Server) query(w http.ResponseWriter, r *http.Request, kind string, run func(from, to distance.Position) (answer, error)) {
	ctx := r.Context()
	hooks := observability.Query()
	fail := func(err error) {
		hooks.OnQueryError(ctx, kind, err)
		writeError(w, err)
	}

	from, err := positionParam(r, "from")
	if err != nil {
		fail(err)
		return
	}
	to, err := positionParam(r, "to")
	if err != nil {
		fail(err)
		return
	}

	key := s.keyer.QueryKey(s.idx.ID().String(), kind, from.String(), to.String())
	if s.answers != nil {
		if a, ok := s.answers.Get(key); ok {
			observability.Cache().OnCacheHit(ctx, "query")
			a.Cached = true
			writeJSON(w, http.StatusOK, a)
			return
		}
		observability.Cache().OnCacheMiss(ctx, "query")
	}

	start := time.Now()
	a, err := run(from, to)
	if err != nil {
		fail(err)
		return
	}
	hooks.OnQuery(ctx, kind, time.Since(start), a.Reachable)
	a.From, a.To = from.String(), to.String()
	if s.answers != nil {
		s.answers.Add(key, a)
	}
	writeJSON(w, http.StatusOK, a)
}

func positionParam(r *http.Request, name string) (distance.Position, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return distance.Position{}, errors.New(errors.ErrCodeInvalidPosition, "missing %q parameter", name)
	}
	return distance.ParsePosition(v)
}

func (s *Server) handleSnarl(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad node id %q", raw))
		return
	}
	reg, ok := s.idx.SnarlOf(vgraph.NodeID(id))
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "node %d is not indexed", id))
		return
	}
	writeJSON(w, http.StatusOK, snarlResponse{Node: id, Start: reg.Start.String(), End: reg.End.String()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	st := s.idx.Stats()
	lo, hi := s.idx.Bounds()
	writeJSON(w, http.StatusOK, infoResponse{
		Build:       buildinfo.Get(),
		ID:          s.idx.ID().String(),
		MinID:       int64(lo),
		MaxID:       int64(hi),
		HasMax:      s.idx.HasMax(),
		Cap:         st.Cap,
		Nodes:       st.Nodes,
		Regions:     st.Regions,
		Chains:      st.Chains,
		TopLevel:    st.TopLevel,
		Depth:       st.Depth,
		MatrixCells: st.MatrixCells,
		MaxVisits:   st.MaxVisits,
		Components:  st.Components,
		Cycles:      st.Cycles,
	})
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}
