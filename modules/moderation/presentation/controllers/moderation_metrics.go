package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moderation",
		Subsystem: "intake",
		Name:      "submissions_total",
		Help:      "Total number of mutation submissions broken down by tag and outcome.",
	}, []string{"tag", "outcome"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moderation",
		Subsystem: "decisions",
		Name:      "decisions_total",
		Help:      "Total number of change request decisions broken down by tag and status.",
	}, []string{"tag", "status"})
)
