package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "bouncer_member_join_duration_sec",
	Help: "Total duration of member join processing, including executing the decision",
})

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_decisions",
	Help: "Number of vetting decisions made, by action and reason",
}, []string{"action", "reason"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_members_removed",
	Help: "Number of members successfully removed",
}, []string{"reason"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_member_join_errors",
	Help: "Number of errors while processing member joins, by stage",
}, []string{"stage"})

var profileFetchCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bouncer_profile_fetches",
	Help: "Number of extended member profile reads (API calls)",
})
