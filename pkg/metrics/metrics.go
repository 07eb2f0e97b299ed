package metrics

import (
	"os"
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records ID generation activity.
type Metrics interface {
	AddGenerated(n int)
	AddBatch(size int)
	AddRegression(backwardMillis int64)
	AddGenerateError()
}

type EmptyMetrics struct{}

func (EmptyMetrics) AddGenerated(int)    {}
func (EmptyMetrics) AddBatch(int)        {}
func (EmptyMetrics) AddRegression(int64) {}
func (EmptyMetrics) AddGenerateError()   {}

var _ Metrics = EmptyMetrics{}

// Prometheus exports generator metrics through a prometheus registry.
type Prometheus struct {
	generated  prometheus.Counter
	batchSize  prometheus.Histogram
	regression prometheus.Histogram
	errors     prometheus.Counter
}

var _ Metrics = (*Prometheus)(nil)

// NewPrometheus registers the generator metrics on reg. origin and process
// are attached as constant labels so duplicated pairs stand out on dashboards.
func NewPrometheus(reg prometheus.Registerer, origin, process int64) *Prometheus {
	hostname, _ := os.Hostname()
	labels := prometheus.Labels{
		"hostname":   hostname,
		"os":         runtime.GOOS,
		"origin_id":  formatID(origin),
		"process_id": formatID(process),
	}
	factory := promauto.With(reg)

	return &Prometheus{
		generated: factory.NewCounter(prometheus.CounterOpts{
			Name:        "idgen_ids_generated_total",
			Help:        "The total number of IDs handed out",
			ConstLabels: labels,
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "idgen_batch_size",
			Help:        "Number of IDs requested per batch call",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 7),
		}),
		regression: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "idgen_clock_regression_milliseconds",
			Help:        "How far the clock moved backwards when a regression was refused",
			ConstLabels: labels,
			Buckets:     []float64{1, 2, 5, 10, 50, 100, 1000, 10000},
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Name:        "idgen_generate_errors_total",
			Help:        "The total number of failed generate calls",
			ConstLabels: labels,
		}),
	}
}

func (p *Prometheus) AddGenerated(n int) { p.generated.Add(float64(n)) }

func (p *Prometheus) AddBatch(size int) { p.batchSize.Observe(float64(size)) }

func (p *Prometheus) AddRegression(backwardMillis int64) {
	p.regression.Observe(float64(backwardMillis))
	p.errors.Inc()
}

func (p *Prometheus) AddGenerateError() { p.errors.Inc() }

func formatID(v int64) string {
	return strconv.FormatInt(v, 10)
}
