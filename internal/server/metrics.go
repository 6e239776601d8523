package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var quoteSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cotiza_quote_saves_total",
	Help: "Number of persisted quote writes, by operation.",
}, []string{"operation"})
