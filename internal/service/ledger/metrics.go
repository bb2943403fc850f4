package ledger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	outcomesOnce sync.Once
	outcomes     *prometheus.CounterVec
)

func outcomeCounter() *prometheus.CounterVec {
	outcomesOnce.Do(func() {
		counter := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger write operations by outcome",
		}, []string{"operation", "outcome"})
		if err := prometheus.Register(counter); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					counter = existing
				}
			}
		}
		outcomes = counter
	})
	return outcomes
}

func recordOutcome(operation, outcome string) {
	outcomeCounter().With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
}
