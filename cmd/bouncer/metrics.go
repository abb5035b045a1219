package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var joinsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bouncer_joins_received",
	Help: "Number of member join events received",
})

var joinsRejected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bouncer_joins_rejected",
	Help: "Number of member join events which were malformed",
})

var joinsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bouncer_joins_in_flight",
	Help: "Number of member join events currently being processed",
})
