package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure reasons reported to AgentFailed.
const (
	ReasonUnreachable = "unreachable"
	ReasonProtocol    = "protocol"
	ReasonRule        = "rule"
)

type Collector interface {
	AgentJoined()
	ArmyDeployed()
	AttackResolved(conquered bool)
	AgentFailed(reason string)
	AgentBooted()
	GameCompleted(duration time.Duration)
}

type collector struct {
	joined    prometheus.Counter
	deployed  prometheus.Counter
	attacks   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	boots     prometheus.Counter
	games     prometheus.Counter
	durations prometheus.Histogram
}

// NewCollector registers the game server metrics on reg.
func NewCollector(reg prometheus.Registerer) Collector {
	m := &collector{
		joined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk", Name: "agents_joined_total",
			Help: "Agents that joined a game.",
		}),
		deployed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk", Name: "armies_deployed_total",
			Help: "Armies placed during deployment.",
		}),
		attacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk", Name: "attacks_total",
			Help: "Resolved attack rounds by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk", Name: "agent_failures_total",
			Help: "Failed agent requests by reason.",
		}, []string{"reason"}),
		boots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk", Name: "agents_booted_total",
			Help: "Agents removed after repeated failures.",
		}),
		games: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk", Name: "games_completed_total",
			Help: "Games that reached game over.",
		}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk", Name: "game_duration_seconds",
			Help:    "Wall-clock time from first deployment to game over.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(m.joined, m.deployed, m.attacks, m.failures, m.boots, m.games, m.durations)
	return m
}

func (m *collector) AgentJoined()  { m.joined.Inc() }
func (m *collector) ArmyDeployed() { m.deployed.Inc() }
func (m *collector) AgentBooted()  { m.boots.Inc() }

func (m *collector) AttackResolved(conquered bool) {
	outcome := "repelled"
	if conquered {
		outcome = "conquered"
	}
	m.attacks.WithLabelValues(outcome).Inc()
}

func (m *collector) AgentFailed(reason string) {
	m.failures.WithLabelValues(reason).Inc()
}

func (m *collector) GameCompleted(duration time.Duration) {
	m.games.Inc()
	m.durations.Observe(duration.Seconds())
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) AgentJoined()                         {}
func (m *dummyCollector) ArmyDeployed()                        {}
func (m *dummyCollector) AttackResolved(conquered bool)        {}
func (m *dummyCollector) AgentFailed(reason string)            {}
func (m *dummyCollector) AgentBooted()                         {}
func (m *dummyCollector) GameCompleted(duration time.Duration) {}
