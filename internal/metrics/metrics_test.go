package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewAI(reg)
	require.NoError(t, err)

	m.ObserveSuccess("feedback", 300*time.Millisecond, 120, 30)
	m.ObserveFallback("grading", "timeout")
	m.ObserveFallback("grading", "timeout")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("feedback", OutcomeSuccess, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("grading", OutcomeFallback, "timeout")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.tokens.WithLabelValues("feedback", "prompt")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.tokens.WithLabelValues("feedback", "completion")))
}

func TestAIMetricsDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewAI(reg)
	require.NoError(t, err)
	_, err = NewAI(reg)
	assert.Error(t, err)
}

func TestNilAIIsNoop(t *testing.T) {
	var m *AI
	m.ObserveSuccess("grading", time.Second, 1, 1)
	m.ObserveFallback("grading", "no_api_key")
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewAI(reg)
	require.NoError(t, err)
	m.ObserveFallback("feedback", "no_api_key")

	path := filepath.Join(t.TempDir(), "mindforge.prom")
	require.NoError(t, WriteTextfile(reg, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `mindforge_ai_calls_total{outcome="fallback",reason="no_api_key",tier="feedback"} 1`))
}
