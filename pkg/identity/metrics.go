// pkg/identity/metrics.go
package identity

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var backendCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "idadmin",
		Name:      "backend_calls_total",
		Help:      "Identity backend calls by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(backendCalls)
}

func observeCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "internal"
		var e *Error
		if errors.As(err, &e) {
			switch e.Kind {
			case KindBackend:
				outcome = "backend"
			case KindProtocol:
				outcome = "protocol"
			case KindTransport:
				outcome = "transport"
			}
		}
	}
	backendCalls.WithLabelValues(op, outcome).Inc()
}
