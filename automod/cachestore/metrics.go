package cachestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bouncer_cache_lookups",
	Help: "Number of cache lookups, by backend, namespace and result",
}, []string{"backend", "name", "result"})

func recordLookup(backend, name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(backend, name, result).Inc()
}
