package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/plugfox/helpdesk-server/internal/config"
)

// Event names
const (
	EventTicketCreated = "ticket_created"
	EventTicketStatus  = "ticket_status"
	EventMessageSent   = "message_sent"
	EventReportFiled   = "report_filed"
	EventUserBanned    = "user_banned"
	EventUserLogin     = "user_login"
	EventUserRegister  = "user_register"
	EventTicketRated   = "ticket_rated"
)

// MetricsLogger defines the contract for logging metrics
type MetricsLogger interface {
	LogEvent(eventName string, tags map[string]string, fields map[string]interface{})
	LogUserEvent(eventName string, userID int64, fields map[string]interface{})
	Close()
}

type metricsLoggerImpl struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPI
	defaultTags map[string]string // Constant tags, like environment
	logger      *slog.Logger
	done        chan struct{}
}

// Ensure MetricsLogger implements MetricsLoggerInterface
var _ MetricsLogger = (*metricsLoggerImpl)(nil)

// New returns the InfluxDB logger, or a no-op one when InfluxDB is not configured.
func New(config *config.Config, logger *slog.Logger) MetricsLogger {
	if config.Metrics.InfluxURL == "" {
		return NewMetricsFake()
	}
	return NewMetricsImpl(
		config.Metrics.InfluxURL,
		config.Metrics.InfluxToken,
		config.Metrics.InfluxOrg,
		config.Metrics.InfluxBucket,
		map[string]string{"environment": config.Environment},
		logger,
	)
}

// NewMetricsImpl initializes the logger with constant tags
func NewMetricsImpl(url string, token string, org string, bucket string, defaultTags map[string]string, logger *slog.Logger) MetricsLogger {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)
	impl := &metricsLoggerImpl{
		client:      client,
		writeAPI:    writeAPI,
		defaultTags: defaultTags,
		logger:      logger,
		done:        make(chan struct{}),
	}
	go impl.drainErrors()
	return impl
}

// Writes are asynchronous, failures only surface on the errors channel.
func (impl *metricsLoggerImpl) drainErrors() {
	errs := impl.writeAPI.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			impl.logger.WarnContext(context.Background(), "influxdb write failed", slog.String("error", err.Error()))
		case <-impl.done:
			return
		}
	}
}

// Universal method to log an event with customizable tags and fields
func (impl *metricsLoggerImpl) LogEvent(eventName string, tags map[string]string, fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}

	point := influxdb2.NewPointWithMeasurement("helpdesk_event").
		AddTag("event", eventName).
		SetTime(time.Now())

	// Add constant default tags
	for key, value := range impl.defaultTags {
		point.AddTag(key, value)
	}

	// Add custom tags
	for key, value := range tags {
		point.AddTag(key, value)
	}

	// Add custom fields
	for key, value := range fields {
		point.AddField(key, value)
	}

	impl.writeAPI.WritePoint(point)
}

// Specific method for logging user-related events
func (impl *metricsLoggerImpl) LogUserEvent(eventName string, userID int64, fields map[string]interface{}) {
	impl.LogEvent(eventName, userTags(userID), fields)
}

// Close flushes the write API and closes the client
func (impl *metricsLoggerImpl) Close() {
	impl.writeAPI.Flush()
	close(impl.done)
	impl.client.Close()
}

func userTags(userID int64) map[string]string {
	if userID == 0 {
		return nil
	}
	return map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
	}
}

type multiLogger []MetricsLogger

// Combine fans every event out to all loggers.
func Combine(loggers ...MetricsLogger) MetricsLogger {
	return multiLogger(loggers)
}

func (m multiLogger) LogEvent(eventName string, tags map[string]string, fields map[string]interface{}) {
	for _, logger := range m {
		logger.LogEvent(eventName, tags, fields)
	}
}

func (m multiLogger) LogUserEvent(eventName string, userID int64, fields map[string]interface{}) {
	for _, logger := range m {
		logger.LogUserEvent(eventName, userID, fields)
	}
}

func (m multiLogger) Close() {
	for _, logger := range m {
		logger.Close()
	}
}
