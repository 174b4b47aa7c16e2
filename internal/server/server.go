// Package server exposes an assembled heatmap over HTTP so a dashboard can
// draw the grid without computing it.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/grid"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/legend"
	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/palette"
	"github.com/luki/heatmap/internal/sensor"
	"github.com/luki/heatmap/internal/valuerange"
)

// Server serves one heatmap card.
type Server struct {
	mu   sync.Mutex // guards card
	card *heatmap.Card
	src  heatmap.Source
	now  func() time.Time

	router *mux.Router
}

// New returns a server for card, reading statistics from src.
func New(card *heatmap.Card, src heatmap.Source) *Server {
	s := &Server{card: card, src: src, now: time.Now}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/heatmap", s.getHeatmap).Methods(http.MethodGet)
	api.HandleFunc("/palettes", s.getPalettes).Methods(http.MethodGet)
	api.HandleFunc("/palettes/{name}", s.getPalette).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetConfig replaces the card configuration.
func (s *Server) SetConfig(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card.SetConfig(cfg)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("error shutting down HTTP server: %v", err)
		}
	}()

	log.Infof("serving heatmap on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type rowResponse struct {
	Date   string     `json:"date"`
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
	Colors []string   `json:"colors"`
}

type heatmapResponse struct {
	Title  string        `json:"title"`
	Entity string        `json:"entity"`
	Unit   string        `json:"unit"`
	Scale  string        `json:"scale"`
	Hours  []string      `json:"hours"`
	Rows   []rowResponse `json:"rows"`
	CSS    string        `json:"css"`
	Legend []legend.Tick `json:"legend,omitempty"`
	Min    float64       `json:"min"`
	Max    float64       `json:"max"`
}

func (s *Server) getHeatmap(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	if req.URL.Query().Get("reload") == "1" {
		s.card.Invalidate()
	}
	res, err := s.card.Refresh(req.Context(), s.src, s.now())
	cfg, meta, title := s.card.Config(), s.card.Meta(), s.card.Title()
	s.mu.Unlock()

	if err != nil {
		log.Warnw("heatmap request failed", "entity", cfg.Entity, "error", err)
		s.writeError(w, req, err)
		return
	}

	resp := heatmapResponse{
		Title:  title,
		Entity: cfg.Entity,
		Unit:   meta.Unit,
		Scale:  res.Scale.Name,
		Hours:  grid.HourHeaders(cfg.Display.TimeFormat),
		Rows:   make([]rowResponse, len(res.Rows)),
		CSS:    res.Scale.CSS,
		Min:    res.Range.Min,
		Max:    res.Range.Max,
	}
	if cfg.Display.Legend {
		resp.Legend = res.Legend
	}
	for i, row := range res.Rows {
		rr := rowResponse{
			Date:   row.Date.Format("2006-01-02"),
			Label:  row.Label,
			Values: make([]*float64, len(row.Values)),
			Colors: make([]string, len(row.Values)),
		}
		for h, c := range row.Values {
			if color, ok := res.Color(c); ok {
				v := c.Value
				rr.Values[h] = &v
				rr.Colors[h] = color
			}
		}
		resp.Rows[i] = rr
	}

	if err := writeResponse(w, req, http.StatusOK, resp); err != nil {
		log.Errorf("error writing heatmap response: %v", err)
	}
}

type paletteResponse struct {
	Name  string         `json:"name"`
	Title string         `json:"title"`
	Type  palette.Type   `json:"type"`
	Unit  string         `json:"unit,omitempty"`
	Steps []palette.Step `json:"steps"`
	CSS   string         `json:"css"`
}

func (s *Server) buildPalette(name string) (paletteResponse, error) {
	s.mu.Lock()
	unitSystem := s.card.Config().UnitSystem.Temperature
	s.mu.Unlock()

	def, err := palette.Lookup(name)
	if err != nil {
		return paletteResponse{}, err
	}
	scale, err := palette.Build(def, unitSystem)
	if err != nil {
		return paletteResponse{}, err
	}
	return paletteResponse{
		Name:  name,
		Title: scale.Name,
		Type:  scale.Type,
		Unit:  scale.Unit,
		Steps: scale.Steps,
		CSS:   scale.CSS,
	}, nil
}

func (s *Server) getPalettes(w http.ResponseWriter, req *http.Request) {
	var out []paletteResponse
	for _, name := range palette.Names() {
		p, err := s.buildPalette(name)
		if err != nil {
			s.writeError(w, req, err)
			return
		}
		out = append(out, p)
	}
	if err := writeResponse(w, req, http.StatusOK, out); err != nil {
		log.Errorf("error writing palettes response: %v", err)
	}
}

func (s *Server) getPalette(w http.ResponseWriter, req *http.Request) {
	p, err := s.buildPalette(mux.Vars(req)["name"])
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	if err := writeResponse(w, req, http.StatusOK, p); err != nil {
		log.Errorf("error writing palette response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, req *http.Request, err error) {
	if werr := writeResponse(w, req, statusFor(err), errorResponse{Error: err.Error()}); werr != nil {
		log.Errorf("error writing error response: %v", werr)
	}
}

// statusFor maps heatmap errors onto HTTP status codes.
func statusFor(err error) int {
	var unknown *palette.UnknownPaletteError
	switch {
	case errors.Is(err, sensor.ErrNotFound), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.Is(err, sensor.ErrUnknownMode),
		errors.Is(err, config.ErrMaxRequired),
		errors.Is(err, valuerange.ErrIndeterminate),
		errors.Is(err, valuerange.ErrInverted),
		errors.Is(err, palette.ErrNoSteps):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
