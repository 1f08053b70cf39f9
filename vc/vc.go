// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vc provides buildtime information.
package vc // import "go.opentelemetry.io/dependency-collector/vc"

import "fmt"

var (
	// The following variables are going to be set at link time using ldflags
	// and can be referenced later in the program.

	// revision of the service
	revision = ""
	// buildTimestamp, timestamp of the build
	buildTimestamp = ""
	// version in vX.Y.Z{-N-abbrev} format (via git-describe --tags)
	version = "v0.0.0-dev"
)

// Source identifies the kind of notification source a dependency was collected from.
type Source string

const (
	// SourceFramework marks dependencies correlated from numbered framework events.
	SourceFramework Source = "f"
	// SourceProfiler marks dependencies correlated from intercepted calls.
	SourceProfiler Source = "p"
)

// Revision of the service.
func Revision() string {
	return revision
}

// BuildTimestamp returns the timestamp of the build.
func BuildTimestamp() string {
	return buildTimestamp
}

// Version in vX.Y.Z{-N-abbrev} format.
func Version() string {
	return version
}

// SDKVersion returns the version tag attached to every dependency, prefixed with
// the source it was collected by, e.g. "rddf: v0.3.0".
func SDKVersion(src Source) string {
	return fmt.Sprintf("rdd%s: %s", src, version)
}
