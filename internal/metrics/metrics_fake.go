package metrics

// metricsFake is a no-op implementation of MetricsLogger
type metricsFake struct{}

// Ensure FakeMetricsLogger implements MetricsLoggerInterface
var _ MetricsLogger = (*metricsFake)(nil)

// NewMetricsFake creates a logger which drops every event
func NewMetricsFake() MetricsLogger {
	return &metricsFake{}
}

func (metrics *metricsFake) LogEvent(_ string, _ map[string]string, _ map[string]interface{}) {}

func (metrics *metricsFake) LogUserEvent(_ string, _ int64, _ map[string]interface{}) {}

func (metrics *metricsFake) Close() {}
