package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics_ObserveOperationRecordsSuccessAndError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)

	m.ObserveOperation("UploadPart", 10*time.Millisecond, nil)
	m.ObserveOperation("UploadPart", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), counterValue(t, m.operationsTotal.WithLabelValues("UploadPart", "success")))
	assert.Equal(t, float64(1), counterValue(t, m.operationsTotal.WithLabelValues("UploadPart", "error")))
}

func TestMetrics_RecordBytesSentIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)

	m.RecordBytesSent("backups", 0)
	m.RecordBytesSent("backups", -5)
	m.RecordBytesSent("backups", 100)

	assert.Equal(t, float64(100), counterValue(t, m.bytesSentTotal.WithLabelValues("backups")))
}

func TestMetrics_RecordUploadOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)

	m.RecordUploadOutcome("completed")
	m.RecordUploadOutcome("aborted")
	m.RecordUploadOutcome("completed")

	assert.Equal(t, float64(2), counterValue(t, m.uploadOutcomes.WithLabelValues("completed")))
	assert.Equal(t, float64(1), counterValue(t, m.uploadOutcomes.WithLabelValues("aborted")))
}

func TestMetrics_RecordPlannedActionsSetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg).(*Metrics)

	m.RecordPlannedActions("backups", 3)
	m.RecordPlannedActions("backups", 5)

	var out dto.Metric
	require.NoError(t, m.plannedActions.WithLabelValues("backups").Write(&out))
	assert.Equal(t, float64(5), out.GetGauge().GetValue())
}
