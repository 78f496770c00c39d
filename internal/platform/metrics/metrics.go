// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collectors groups every collector the service updates.
//
// Collectors are curried with the service name once, at construction.
type Collectors struct {
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	AuthRegistrationsTotal *prometheus.CounterVec
	AuthLoginsTotal        *prometheus.CounterVec
	TokensIssuedTotal      *prometheus.CounterVec
	TokensRevokedTotal     *prometheus.CounterVec
	OTPIssuedTotal         *prometheus.CounterVec
	ReaperPurgedTotal      prometheus.Counter
}

// New creates the collectors and registers them with registerer.
// It panics if a collector is already registered.
func New(serviceName string, registerer prometheus.Registerer) *Collectors {
	labels := prometheus.Labels{"service": serviceName}

	collectors := &Collectors{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests.",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"method", "path"},
		),

		AuthRegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_registrations_total",
				Help:        "Total number of registration attempts.",
				ConstLabels: labels,
			},
			[]string{"provider", "result"},
		),

		AuthLoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_logins_total",
				Help:        "Total number of login attempts.",
				ConstLabels: labels,
			},
			[]string{"provider", "result"},
		),

		TokensIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_tokens_issued_total",
				Help:        "Total number of token pairs issued or refreshed.",
				ConstLabels: labels,
			},
			[]string{"flow", "tier"},
		),

		TokensRevokedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_tokens_revoked_total",
				Help:        "Total number of revoked token identifiers.",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),

		OTPIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_otp_issued_total",
				Help:        "Total number of one-time codes issued.",
				ConstLabels: labels,
			},
			[]string{"purpose", "result"},
		),

		ReaperPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "auth_revocations_purged_total",
				Help:        "Total number of expired revocation records deleted.",
				ConstLabels: labels,
			},
		),
	}

	registerer.MustRegister(
		collectors.HTTPRequestsTotal,
		collectors.HTTPRequestDurationSeconds,
		collectors.AuthRegistrationsTotal,
		collectors.AuthLoginsTotal,
		collectors.TokensIssuedTotal,
		collectors.TokensRevokedTotal,
		collectors.OTPIssuedTotal,
		collectors.ReaperPurgedTotal,
	)

	return collectors
}

// NewUnregistered creates collectors on a private registry. Used by tests and CLI
// commands that never serve /metrics.
func NewUnregistered(serviceName string) *Collectors {
	return New(serviceName, prometheus.NewRegistry())
}
