package api

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/itohio/goscope/pkg/acquire"
	"github.com/itohio/goscope/pkg/logging"
)

// Status is the JSON form of the acquisition state.
type Status struct {
	State    string   `json:"state"`
	Ports    []string `json:"ports"`
	Selected int      `json:"selected"`
	Error    string   `json:"error,omitempty"`

	Port           string  `json:"port,omitempty"`
	Session        string  `json:"session,omitempty"`
	Format         string  `json:"format,omitempty"`
	Rate           int     `json:"rate"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Pending        int     `json:"pending_bytes"`
	Window         int     `json:"window_bytes"`
	Stats          Stats   `json:"stats"`
}

// Stats mirrors decoder diagnostics.
type Stats struct {
	Frames       int `json:"frames"`
	Unrecognized int `json:"unrecognized"`
	Padding      int `json:"padding"`
	Overflows    int `json:"overflows"`
	OutOfRange   int `json:"out_of_range"`
}

// Samples is the JSON form of the ring buffer contents.
type Samples struct {
	Cursor  int       `json:"cursor"`
	Ordered bool      `json:"ordered"`
	Values  []float64 `json:"values"`
}

// Server is a read-only REST API over the last published View.
// Publish is called from the acquisition loop; handlers read a copy.
type Server struct {
	router *fiber.App
	log    logging.Logger

	mu   sync.RWMutex
	view acquire.View
}

// New creates the API and registers its routes. It does not listen.
func New(log logging.Logger) *Server {
	s := &Server{
		router: fiber.New(fiber.Config{DisableStartupMessage: true}),
		log:    logging.OrNull(log),
	}

	s.router.Get("/state", s.handleState())
	s.router.Get("/samples", s.handleSamples())

	return s
}

// Publish replaces the served view. The sample slice is copied.
func (s *Server) Publish(v acquire.View) {
	v.Samples = append([]float64(nil), v.Samples...)

	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// Start listens on endpoint in a goroutine.
func (s *Server) Start(endpoint string) {
	go func() {
		if err := s.router.Listen(endpoint); err != nil {
			s.log.Errorf("API server on %s stopped: %v", endpoint, err)
		}
	}()
	s.log.Infof("API listening on %s", endpoint)
}

// Shutdown stops the listener.
func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}

func (s *Server) snapshot() acquire.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Server) handleState() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(statusOf(s.snapshot()))
	}
}

func (s *Server) handleSamples() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		v := s.snapshot()
		if v.State != acquire.Reading {
			return fiber.NewError(fiber.StatusConflict, "not reading")
		}

		out := Samples{Cursor: v.Cursor, Values: v.Samples}
		if c.QueryBool("ordered") {
			out.Ordered = true
			out.Values = make([]float64, 0, len(v.Samples))
			out.Values = append(out.Values, v.Samples[v.Cursor:]...)
			out.Values = append(out.Values, v.Samples[:v.Cursor]...)
		}
		return c.JSON(out)
	}
}

func statusOf(v acquire.View) Status {
	st := Status{
		State:    v.State.String(),
		Ports:    make([]string, 0, len(v.Ports)),
		Selected: v.Selected,
	}
	for _, p := range v.Ports {
		st.Ports = append(st.Ports, p.Name)
	}
	switch {
	case v.LastErr != nil:
		st.Error = v.LastErr.Error()
	case v.PortsErr != nil:
		st.Error = v.PortsErr.Error()
	}

	if v.State == acquire.Reading {
		st.Port = v.Port
		st.Session = v.SessionID
		st.Format = string(v.Format)
		st.Rate = v.Rate
		st.ElapsedSeconds = v.Elapsed.Seconds()
		st.Pending = v.Pending
		st.Window = v.Window
		st.Stats = Stats{
			Frames:       v.Stats.Frames,
			Unrecognized: v.Stats.Unrecognized,
			Padding:      v.Stats.Padding,
			Overflows:    v.Stats.Overflows,
			OutOfRange:   v.Stats.OutOfRange,
		}
	}
	return st
}
