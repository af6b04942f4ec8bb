package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Issued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civid_credentials_issued_total",
		Help: "Credentials issued.",
	})

	Revoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civid_credentials_revoked_total",
		Help: "Credentials revoked by reason.",
	}, []string{"reason"})

	IssueRefused = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civid_credential_issue_refused_total",
		Help: "Issuance attempts refused by failed precondition.",
	}, []string{"precondition"})
)
