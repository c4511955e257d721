package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var MessagesClassified = promauto.NewCounter(prometheus.CounterOpts{
	Name: "raidguard_messages_classified_total",
	Help: "Number of guild messages run through the rule chain",
})

var ClassifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "raidguard_classify_duration_sec",
	Help:    "Time spent classifying and acting on one message",
	Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
})

var RulesTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_rules_triggered_total",
	Help: "Number of messages halted by each rule",
}, []string{"rule"})

var ActionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_action_outcomes_total",
	Help: "Platform action results by action kind and outcome",
}, []string{"action", "outcome"})

var AntiNukeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_antinuke_events_total",
	Help: "Destructive audit log entries seen, by action",
}, []string{"action"})

var AntiNukeBans = promauto.NewCounter(prometheus.CounterOpts{
	Name: "raidguard_antinuke_bans_total",
	Help: "Actors banned for exceeding the destructive action limit",
})

var LockdownTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_lockdown_transitions_total",
	Help: "Raid lockdown state changes",
}, []string{"transition"})

var CountStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_countstore_errors_total",
	Help: "Counter store failures; the dependent rule was skipped",
}, []string{"category"})

var NoticesSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "raidguard_notices_total",
	Help: "Log channel notices by outcome",
}, []string{"outcome"})

var ComponentUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "raidguard_component_up",
	Help: "1 if the last watchdog probe of the component succeeded",
}, []string{"component"})
