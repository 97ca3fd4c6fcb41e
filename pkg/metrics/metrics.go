package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "appcatalog", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "appcatalog", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// BotProvisioning counts provisioning steps by entity (user|bot) and outcome (created|reused|conflict|failed).
	BotProvisioning = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "appcatalog", Name: "bot_provisioning_total", Help: "Bot provisioning steps by entity and outcome."},
		[]string{"entity", "outcome"},
	)
	SchedulerRemovals = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "appcatalog", Name: "scheduler_removals_total", Help: "Scheduled job removals on application delete by result."},
		[]string{"result"},
	)
	AppRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "appcatalog", Name: "app_runs_total", Help: "Application job runs by status."},
		[]string{"status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(BotProvisioning)
	reg.MustRegister(SchedulerRemovals)
	reg.MustRegister(AppRuns)
}
