package ports

// Outcome labels recorded by MetricsReporter.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultExpired = "expired"
	ResultError   = "error"
)

// MetricsReporter receives plugin operation outcomes.
type MetricsReporter interface {
	RecordLogin(result string)
	RecordCheck(result string)
	RecordRegistration(op, result string)
	SetRegistrations(n int)
}
