package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GoCodeAlone/bootevents"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Probe paths served by NewRouter.
const (
	LivenessPath  = "/livez"
	ReadinessPath = "/readyz"
	HealthPath    = "/health"
)

type probes struct {
	reader AvailabilityReader
	logger bootevents.Logger
	now    func() time.Time
}

// Option configures the probe router.
type Option func(*probes)

// WithLogger sets the logger used to report responses that could not be
// written. Responses are not logged by default.
func WithLogger(logger bootevents.Logger) Option {
	return func(p *probes) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewRouter returns a router serving the liveness, readiness and combined
// health probes. A probe answers 200 when up and 503 otherwise.
func NewRouter(reader AvailabilityReader, opts ...Option) chi.Router {
	p := &probes{reader: reader, logger: bootevents.NopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Get(LivenessPath, p.liveness)
	r.Get(ReadinessPath, p.readiness)
	r.Get(HealthPath, p.health)
	return r
}

func (p *probes) livenessResult() ProbeResult {
	state := p.reader.Liveness()
	return ProbeResult{
		Probe:     "liveness",
		State:     state.String(),
		Up:        state == bootevents.LivenessCorrect,
		CheckedAt: p.now(),
	}
}

func (p *probes) readinessResult() ProbeResult {
	state := p.reader.Readiness()
	return ProbeResult{
		Probe:     "readiness",
		State:     state.String(),
		Up:        state == bootevents.ReadinessAcceptingTraffic,
		CheckedAt: p.now(),
	}
}

func (p *probes) liveness(w http.ResponseWriter, _ *http.Request) {
	result := p.livenessResult()
	p.writeJSON(w, statusFor(result.Up), result)
}

func (p *probes) readiness(w http.ResponseWriter, _ *http.Request) {
	result := p.readinessResult()
	p.writeJSON(w, statusFor(result.Up), result)
}

func (p *probes) health(w http.ResponseWriter, _ *http.Request) {
	live, ready := p.livenessResult(), p.readinessResult()
	result := AggregatedResult{
		Up:        live.Up && ready.Up,
		Probes:    []ProbeResult{live, ready},
		CheckedAt: p.now(),
	}
	p.writeJSON(w, statusFor(result.Up), result)
}

func statusFor(up bool) int {
	if up {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// writeJSON sends body with status. The status line is already out when the
// body fails to encode or write, so the failure can only be logged.
func (p *probes) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		p.logger.Warn("Failed to write probe response", "status", status, "error", err)
	}
}
