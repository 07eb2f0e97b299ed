package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewPrometheus(reg, 3, 7)

	m.AddGenerated(1)
	m.AddGenerated(4)
	m.AddBatch(4)
	m.AddRegression(12)
	m.AddGenerateError()

	assert.Equal(t, float64(5), testutil.ToFloat64(m.generated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.errors))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "origin_id" {
					assert.Equal(t, "3", label.GetValue())
				}
			}
		}
	}
	assert.True(t, names["idgen_ids_generated_total"])
	assert.True(t, names["idgen_batch_size"])
	assert.True(t, names["idgen_clock_regression_milliseconds"])
	assert.True(t, names["idgen_generate_errors_total"])
}

func TestPrometheus_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg, 1, 1)
	assert.Panics(t, func() { NewPrometheus(reg, 1, 1) })
}

func TestEmptyMetrics(t *testing.T) {
	var m Metrics = EmptyMetrics{}
	assert.NotPanics(t, func() {
		m.AddGenerated(1)
		m.AddBatch(1)
		m.AddRegression(1)
		m.AddGenerateError()
	})
}
