package observ

import (
	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// Recorder exports checkout counters to Prometheus.
type Recorder struct {
	submissions *prometheus.CounterVec
	limits      *prometheus.CounterVec
}

// NewRecorder registers the counters on reg; pass prometheus.DefaultRegisterer
// to expose them on /metrics.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_submissions_total",
				Help: "Order intent submissions by outcome",
			},
			[]string{"outcome"},
		),
		limits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_limit_rejections_total",
				Help: "Cart additions rejected by the active package limits",
			},
			[]string{"category"},
		),
	}
	reg.MustRegister(r.submissions, r.limits)
	return r
}

func (r *Recorder) Submission(outcome string) {
	r.submissions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) LimitRejected(category domain.Category) {
	r.limits.WithLabelValues(string(category)).Inc()
}

var _ usecase.Recorder = (*Recorder)(nil)
