package dashboard

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/rs/cors"
)

// Stats is the subset of *core.Engine's accessors the dashboard samples.
// Kept as an interface so tests can feed it synthetic counters instead
// of standing up a whole engine.
type Stats interface {
	Cycles() uint64
	Instructions() uint64
	Compiles() uint64
	DecodeCacheHitRate() float64
}

// Server accumulates periodic samples of Stats and renders them as a
// go-echarts line chart, served next to statsview's own runtime charts.
type Server struct {
	stats     Stats
	maxPoints int

	mu      sync.Mutex
	labels  []string
	hitRate []float64
	ipc     []float64
	tick    int

	viewer *statsview.ViewManager
}

// New returns a dashboard sampling from stats, keeping at most maxPoints
// of history per series (0 defaults to 120, roughly two minutes at a
// one-sample-per-second cadence).
func New(stats Stats, maxPoints int) *Server {
	if maxPoints <= 0 {
		maxPoints = 120
	}
	return &Server{stats: stats, maxPoints: maxPoints}
}

// Sample records one data point from the underlying Stats. Callers
// typically invoke this from a ticker goroutine alongside the engine's
// run loop.
func (s *Server) Sample() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	insns := s.stats.Instructions()
	cycles := s.stats.Cycles()
	ipc := 0.0
	if cycles > 0 {
		ipc = float64(insns) / float64(cycles)
	}

	s.labels = append(s.labels, fmt.Sprintf("%d", s.tick))
	s.hitRate = append(s.hitRate, s.stats.DecodeCacheHitRate()*100)
	s.ipc = append(s.ipc, ipc)

	if len(s.labels) > s.maxPoints {
		s.labels = s.labels[1:]
		s.hitRate = s.hitRate[1:]
		s.ipc = s.ipc[1:]
	}
}

func lineData(vals []float64) []opts.LineData {
	out := make([]opts.LineData, len(vals))
	for i, v := range vals {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// render writes the current chart as standalone HTML to w.
func (s *Server) render(w io.Writer) error {
	s.mu.Lock()
	labels := append([]string(nil), s.labels...)
	hitRate := append([]float64(nil), s.hitRate...)
	ipc := append([]float64(nil), s.ipc...)
	s.mu.Unlock()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "or1kiss engine counters"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
	)
	line.SetXAxis(labels).
		AddSeries("decode cache hit rate %", lineData(hitRate)).
		AddSeries("instructions/cycle", lineData(ipc))

	return line.Render(w)
}

// Handler returns the CORS-wrapped mux serving /dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.render(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(mux)
}

// ListenAndServe starts statsview's runtime-metrics viewer and blocks
// serving the engine-counters dashboard on addr (e.g. ":18080").
func (s *Server) ListenAndServe(addr string) error {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	s.viewer = statsview.New()
	go s.viewer.Start()
	return http.ListenAndServe(addr, s.Handler())
}

// Close stops the statsview viewer goroutine, if running.
func (s *Server) Close() {
	if s.viewer != nil {
		s.viewer.Stop()
	}
}
