package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC Layer
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Pattern Layer
	PatternsParsedTotal  CounterVec
	PatternParseFailures CounterVec
	PatternParseDuration HistogramVec
	ClassificationsTotal CounterVec
	OracleChecksTotal    CounterVec
	BatchSize            HistogramVec

	// Environment Layer
	MutationsTotal     CounterVec
	EnvironmentsStored GaugeVec

	// Infrastructure Layer
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	EventsPublishedTotal   CounterVec
	MessageProcessDuration HistogramVec

	// System Health
	ErrorsTotal CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultParseDurationBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultBatchSizeBuckets     = []float64{1, 5, 10, 50, 100, 500, 1000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// gRPC
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC calls", "service", "method", "code", "type")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC call duration", DefaultHTTPDurationBuckets, "service", "method")

	// Pattern
	m.PatternsParsedTotal = collector.RegisterCounter("patterns_parsed_total", "Patterns parsed successfully")
	m.PatternParseFailures = collector.RegisterCounter("pattern_parse_failures_total", "Patterns rejected by the parser", "code")
	m.PatternParseDuration = collector.RegisterHistogram("pattern_parse_duration_seconds", "Pattern parse duration", DefaultParseDurationBuckets)
	m.ClassificationsTotal = collector.RegisterCounter("pattern_classifications_total", "Patterns classified per category", "category")
	m.OracleChecksTotal = collector.RegisterCounter("oracle_checks_total", "Well-formedness oracle verdicts", "result")
	m.BatchSize = collector.RegisterHistogram("batch_analyze_size", "Patterns per batch request", DefaultBatchSizeBuckets)

	// Environment
	m.MutationsTotal = collector.RegisterCounter("environment_mutations_total", "Environment mutations", "operation", "result")
	m.EnvironmentsStored = collector.RegisterGauge("environments_stored", "Stored environments seen by the last list", "driver")

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Repository query duration", DefaultDBDurationBuckets, "driver", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Domain events handed to the event bus", "topic", "status")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")

	// System Health
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// NewNoopMetrics returns AppMetrics that record nothing.
func NewNoopMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

// Helpers

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGRPCRequest counts one finished call; kind is "unary" or "stream".
func RecordGRPCRequest(m *AppMetrics, service, method, code, kind string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(service, method, code, kind).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordParse counts a parse outcome; code is the error code of a failure.
func RecordParse(m *AppMetrics, duration time.Duration, code string) {
	m.PatternParseDuration.WithLabelValues().Observe(duration.Seconds())
	if code != "" {
		m.PatternParseFailures.WithLabelValues(code).Inc()
		return
	}
	m.PatternsParsedTotal.WithLabelValues().Inc()
}

func RecordClassification(m *AppMetrics, category string) {
	m.ClassificationsTotal.WithLabelValues(category).Inc()
}

func RecordMutation(m *AppMetrics, operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.MutationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordOracleCheck(m *AppMetrics, wellFormed bool, err error) {
	switch {
	case err != nil:
		m.OracleChecksTotal.WithLabelValues("error").Inc()
	case wellFormed:
		m.OracleChecksTotal.WithLabelValues("well_formed").Inc()
	default:
		m.OracleChecksTotal.WithLabelValues("malformed").Inc()
	}
}

func RecordDBQuery(m *AppMetrics, driver, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(driver, "query_error").Inc()
	}
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordPublish(m *AppMetrics, topic string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.EventsPublishedTotal.WithLabelValues(topic, status).Inc()
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
