package scenario

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/http"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics records the latency of every request a run makes, overall and per
// protocol. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	total  atomic.Int64
	errors atomic.Int64

	// microseconds, 1us to 60s, 3 significant digits
	histogram  *hdrhistogram.Histogram
	byProtocol map[string]*hdrhistogram.Histogram
}

// LatencySummary is the latency digest attached to a run result.
type LatencySummary struct {
	Requests   int64
	Errors     int64
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	Min        time.Duration
	Max        time.Duration
	Mean       time.Duration
	ByProtocol map[string]ProtocolLatency
}

type ProtocolLatency struct {
	Requests int64
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram:  hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		byProtocol: make(map[string]*hdrhistogram.Histogram),
	}
}

// Observe records one response. Its signature matches http.WithObserver.
func (m *Metrics) Observe(resp *http.Response) {
	m.total.Add(1)
	if resp.IsServerError() {
		m.errors.Add(1)
	}

	us := clampLatency(resp.Duration)
	proto := protocolOf(resp)

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(us)
	h, ok := m.byProtocol[proto]
	if !ok {
		h = hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
		m.byProtocol[proto] = h
	}
	_ = h.RecordValue(us)
}

// Summary returns the digest so far. It is zero-valued when nothing was recorded.
func (m *Metrics) Summary() LatencySummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := LatencySummary{
		Requests:   m.total.Load(),
		Errors:     m.errors.Load(),
		ByProtocol: make(map[string]ProtocolLatency, len(m.byProtocol)),
	}
	if m.histogram.TotalCount() == 0 {
		return s
	}

	s.P50 = usToDuration(m.histogram.ValueAtQuantile(50))
	s.P95 = usToDuration(m.histogram.ValueAtQuantile(95))
	s.P99 = usToDuration(m.histogram.ValueAtQuantile(99))
	s.Min = usToDuration(m.histogram.Min())
	s.Max = usToDuration(m.histogram.Max())
	s.Mean = time.Duration(m.histogram.Mean()) * time.Microsecond

	for name, h := range m.byProtocol {
		s.ByProtocol[name] = ProtocolLatency{
			Requests: h.TotalCount(),
			P50:      usToDuration(h.ValueAtQuantile(50)),
			P95:      usToDuration(h.ValueAtQuantile(95)),
			P99:      usToDuration(h.ValueAtQuantile(99)),
		}
	}
	return s
}

func protocolOf(resp *http.Response) string {
	if strings.HasSuffix(strings.TrimSuffix(resp.URL, "/"), catalog.GraphQLPath) {
		return "GraphQL"
	}
	return "REST"
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	return us
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
