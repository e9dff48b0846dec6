package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result labels for LoginAttempts.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultLocked             = "locked"
	ResultValidationError    = "validation_error"
)

// LoginAttempts counts login attempts by outcome.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bendadvisor_login_attempts_total",
		Help: "Total number of login attempts by result",
	},
	[]string{"result"},
)

// LockoutsTriggered counts accounts locked after repeated failures.
var LockoutsTriggered = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "bendadvisor_lockouts_triggered_total",
		Help: "Total number of account lockouts triggered",
	},
)

// TokenVerifications counts token checks by the auth middleware.
var TokenVerifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bendadvisor_token_verifications_total",
		Help: "Total number of token verifications by result",
	},
	[]string{"result"},
)

// Register registers all auth metrics with the given registry. Must be called
// once at startup; panics on duplicate registration per prometheus convention.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(LockoutsTriggered)
	reg.MustRegister(TokenVerifications)
}

func RecordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

func RecordTokenVerification(result string) {
	TokenVerifications.WithLabelValues(result).Inc()
}
