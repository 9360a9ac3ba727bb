// Package metrics exposes cryptolab counters and histograms in the
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type collector interface {
	write(sb *strings.Builder)
}

type series struct {
	name   string
	help   string
	labels []string
}

func (s series) key(values []string) string {
	if len(values) != len(s.labels) {
		panic(fmt.Sprintf("%s: expected %d labels, got %d", s.name, len(s.labels), len(values)))
	}
	return strings.Join(values, "\x00")
}

// labelSet renders the label pairs for a stored key, optionally followed by
// extra pre-rendered pairs such as le="0.5".
func (s series) labelSet(key string, extra string) string {
	if len(s.labels) == 0 && extra == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("{")
	if len(s.labels) > 0 {
		parts := strings.Split(key, "\x00")
		for i, label := range s.labels {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(label)
			sb.WriteString("=\"")
			sb.WriteString(escapeLabel(parts[i]))
			sb.WriteString("\"")
		}
	}
	if extra != "" {
		if len(s.labels) > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(extra)
	}
	sb.WriteString("}")
	return sb.String()
}

type counterVec struct {
	series

	mu     sync.RWMutex
	values map[string]float64
}

type gaugeVec struct {
	series

	mu     sync.RWMutex
	values map[string]float64
}

type histogramVec struct {
	series
	buckets []float64

	mu     sync.RWMutex
	values map[string]*histogramValue
}

type histogramValue struct {
	counts []uint64
	sum    float64
	total  uint64
}

var (
	operations = newCounterVec("cryptolab_operations_total",
		"Cipher transformations performed, by scheme, direction and outcome.",
		[]string{"scheme", "direction", "outcome"})
	breaks = newCounterVec("cryptolab_breaks_total",
		"Ciphertext-only attacks attempted, by scheme, method and outcome.",
		[]string{"scheme", "method", "outcome"})
	breakLatency = newHistogramVec("cryptolab_break_duration_seconds",
		"Time spent recovering keys from ciphertext.",
		[]string{"scheme", "method"})
	requests = newCounterVec("cryptolab_requests_total",
		"Requests served by the daemon, by transport, method and status code.",
		[]string{"transport", "method", "code"})
	requestLatency = newHistogramVec("cryptolab_request_duration_seconds",
		"Latency of daemon request handlers.",
		[]string{"transport", "method"})
	inFlight = newGaugeVec("cryptolab_analyses_in_flight",
		"Number of cryptanalysis runs currently executing.", nil)
	padBytes = newCounterVec("cryptolab_pad_bytes_total",
		"Bytes of one-time pad material generated.", nil)

	collectors = []collector{operations, breaks, breakLatency, requests, requestLatency, inFlight, padBytes}

	totalRequests uint64
	running       int64
)

func newCounterVec(name, help string, labels []string) *counterVec {
	return &counterVec{series: series{name: name, help: help, labels: labels}, values: make(map[string]float64)}
}

func newGaugeVec(name, help string, labels []string) *gaugeVec {
	return &gaugeVec{series: series{name: name, help: help, labels: labels}, values: make(map[string]float64)}
}

func newHistogramVec(name, help string, labels []string) *histogramVec {
	return &histogramVec{
		series:  series{name: name, help: help, labels: labels},
		buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		values:  make(map[string]*histogramValue),
	}
}

func (cv *counterVec) add(delta float64, values ...string) {
	key := cv.key(values)
	cv.mu.Lock()
	cv.values[key] += delta
	cv.mu.Unlock()
}

func (cv *counterVec) write(sb *strings.Builder) {
	writeHeader(sb, cv.name, cv.help, "counter")
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	for _, key := range sortedKeys(cv.values) {
		fmt.Fprintf(sb, "%s%s %g\n", cv.name, cv.labelSet(key, ""), cv.values[key])
	}
}

func (gv *gaugeVec) set(v float64, values ...string) {
	key := gv.key(values)
	gv.mu.Lock()
	gv.values[key] = v
	gv.mu.Unlock()
}

func (gv *gaugeVec) write(sb *strings.Builder) {
	writeHeader(sb, gv.name, gv.help, "gauge")
	gv.mu.RLock()
	defer gv.mu.RUnlock()
	for _, key := range sortedKeys(gv.values) {
		fmt.Fprintf(sb, "%s%s %g\n", gv.name, gv.labelSet(key, ""), gv.values[key])
	}
}

func (hv *histogramVec) observe(sample float64, values ...string) {
	key := hv.key(values)
	hv.mu.Lock()
	defer hv.mu.Unlock()
	entry, ok := hv.values[key]
	if !ok {
		entry = &histogramValue{counts: make([]uint64, len(hv.buckets)+1)}
		hv.values[key] = entry
	}
	entry.sum += sample
	entry.total++
	idx := sort.SearchFloat64s(hv.buckets, sample)
	entry.counts[idx]++
}

func (hv *histogramVec) write(sb *strings.Builder) {
	writeHeader(sb, hv.name, hv.help, "histogram")
	hv.mu.RLock()
	defer hv.mu.RUnlock()
	keys := make([]string, 0, len(hv.values))
	for k := range hv.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := hv.values[key]
		cumulative := uint64(0)
		for i, upper := range hv.buckets {
			cumulative += entry.counts[i]
			fmt.Fprintf(sb, "%s_bucket%s %d\n", hv.name, hv.labelSet(key, fmt.Sprintf("le=\"%g\"", upper)), cumulative)
		}
		cumulative += entry.counts[len(hv.buckets)]
		fmt.Fprintf(sb, "%s_bucket%s %d\n", hv.name, hv.labelSet(key, "le=\"+Inf\""), cumulative)
		fmt.Fprintf(sb, "%s_sum%s %g\n", hv.name, hv.labelSet(key, ""), entry.sum)
		fmt.Fprintf(sb, "%s_count%s %d\n", hv.name, hv.labelSet(key, ""), entry.total)
	}
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeHeader(sb *strings.Builder, name, help, metricType string) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, metricType)
}

func escapeLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\n", "\\n")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

// Handler exposes the metrics registry as an http.Handler compatible with Prometheus.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var sb strings.Builder
		for _, c := range collectors {
			c.write(&sb)
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(sb.String()))
	})
}

// RecordOperation counts one encode or decode call.
func RecordOperation(scheme, direction, outcome string) {
	operations.add(1, orUnknown(scheme), orUnknown(direction), orUnknown(outcome))
}

// RecordBreak counts an attack and records how long it ran.
func RecordBreak(scheme, method, outcome string, dur time.Duration) {
	scheme, method = orUnknown(scheme), orUnknown(method)
	breaks.add(1, scheme, method, orUnknown(outcome))
	breakLatency.observe(dur.Seconds(), scheme, method)
}

// RecordRequest counts a request served over transport ("http" or "grpc").
func RecordRequest(transport, method, code string, dur time.Duration) {
	transport, method = orUnknown(transport), orUnknown(method)
	requests.add(1, transport, method, orUnknown(code))
	requestLatency.observe(dur.Seconds(), transport, method)
	atomic.AddUint64(&totalRequests, 1)
}

// RecordPadBytes adds n to the generated pad material counter.
func RecordPadBytes(n int) {
	if n <= 0 {
		return
	}
	padBytes.add(float64(n))
}

// TrackAnalysis marks the start of a cryptanalysis run. The returned func
// marks its end and must be called exactly once.
func TrackAnalysis() func() {
	inFlight.set(float64(atomic.AddInt64(&running, 1)))
	var once sync.Once
	return func() {
		once.Do(func() {
			inFlight.set(float64(atomic.AddInt64(&running, -1)))
		})
	}
}

// TotalRequests returns the number of requests served since process start.
func TotalRequests() uint64 {
	return atomic.LoadUint64(&totalRequests)
}
