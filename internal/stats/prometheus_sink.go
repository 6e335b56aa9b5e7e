package stats

import "github.com/prometheus/client_golang/prometheus"

// PrometheusSink publishes sector outcomes and warning counts as
// Prometheus counters. Metric names follow the frisbee_ prefix convention;
// the outcome label lets one metric cover the compared/same/changed/
// only-old/only-new breakdown instead of five separate metrics.
type PrometheusSink struct {
	sectors  *prometheus.CounterVec
	warnings prometheus.Counter
}

// NewPrometheusSink registers its metrics with reg and returns a ready
// sink. reg must not be nil; callers typically pass prometheus.NewRegistry()
// or prometheus.DefaultRegisterer.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		sectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frisbee_delta_sectors_total",
			Help: "Sectors processed by the delta computer, by outcome.",
		}, []string{"outcome"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frisbee_delta_warnings_total",
			Help: "Non-fatal diagnostics emitted while computing a delta or signature.",
		}),
	}
	reg.MustRegister(s.sectors, s.warnings)
	return s
}

func (s *PrometheusSink) SectorsCompared(n uint32) { s.sectors.WithLabelValues("compared").Add(float64(n)) }
func (s *PrometheusSink) SectorsSame(n uint32)     { s.sectors.WithLabelValues("same").Add(float64(n)) }
func (s *PrometheusSink) SectorsChanged(n uint32)  { s.sectors.WithLabelValues("changed").Add(float64(n)) }
func (s *PrometheusSink) SectorsOnlyOld(n uint32)  { s.sectors.WithLabelValues("only_old").Add(float64(n)) }
func (s *PrometheusSink) SectorsOnlyNew(n uint32)  { s.sectors.WithLabelValues("only_new").Add(float64(n)) }

func (s *PrometheusSink) Warning(string) {
	s.warnings.Inc()
}
