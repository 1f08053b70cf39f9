// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// successfailurecounter records the outcome of a completed dependency exactly once.
//
// A SuccessFailureCounter is not thread safe. It is meant to live on the stack of
// the single caller that completes a dependency.
package successfailurecounter // import "go.opentelemetry.io/dependency-collector/successfailurecounter"

import (
	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/dependency-collector/metrics"
)

// SuccessFailureCounter increments either the success or the failure metric, exactly once.
type SuccessFailureCounter struct {
	success, fail metrics.MetricID
	sealed        bool
}

// New returns a SuccessFailureCounter that can be incremented exactly once.
func New(success, fail metrics.MetricID) SuccessFailureCounter {
	return SuccessFailureCounter{success: success, fail: fail}
}

// Report increments the success or failure metric depending on ok.
func (sfc *SuccessFailureCounter) Report(ok bool) {
	if ok {
		sfc.ReportSuccess()
	} else {
		sfc.ReportFailure()
	}
}

// ReportSuccess increments the success metric or logs an error otherwise.
func (sfc *SuccessFailureCounter) ReportSuccess() {
	if sfc.sealed {
		log.Errorf("Attempted to report success/failure status more than once.")
		return
	}
	metrics.Add(sfc.success, 1)
	sfc.sealed = true
}

// ReportFailure increments the failure metric or logs an error otherwise.
func (sfc *SuccessFailureCounter) ReportFailure() {
	if sfc.sealed {
		log.Errorf("Attempted to report failure/success status more than once.")
		return
	}
	metrics.Add(sfc.fail, 1)
	sfc.sealed = true
}

// DefaultToSuccess increments the success metric if no metric was updated before.
func (sfc *SuccessFailureCounter) DefaultToSuccess() {
	if !sfc.sealed {
		metrics.Add(sfc.success, 1)
		sfc.sealed = true
	}
}

// DefaultToFailure increments the failure metric if no metric was updated before.
func (sfc *SuccessFailureCounter) DefaultToFailure() {
	if !sfc.sealed {
		metrics.Add(sfc.fail, 1)
		sfc.sealed = true
	}
}
