package whitelist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var whitelistEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bouncer_whitelist_entries",
	Help: "Number of accounts currently on the whitelist",
})

var whitelistMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_whitelist_mutations",
	Help: "Number of successful whitelist changes",
}, []string{"op"})
