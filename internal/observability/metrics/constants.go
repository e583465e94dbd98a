// Package metrics provides the Prometheus collectors of the hierarchy services.
package metrics

// Operation names recorded by the batch jobs and the API.
const (
	OpReconcileRun     = "reconcile_run"
	OpReconcileRow     = "reconcile_row"
	OpPopulationUpdate = "population_update"
	OpAllocate         = "allocate"
	OpProvision        = "provision"
	OpValidate         = "validate"
	OpCaptureSubmit    = "capture_submit"
	OpCapturePublish   = "capture_publish"
	OpCensusLoad       = "census_load"
	OpCensusLoadRow    = "census_load_row"
)

// Status label values.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusUnchanged = "unchanged"
	StatusUnmatched = "unmatched"
	StatusInvalid   = "invalid"
	StatusIgnored   = "ignored"
	StatusRejected  = "rejected"
)

// Histogram bucket parameters.
const (
	BucketStart1ms  = 0.001
	BucketStart100B = 100
	BucketFactor2   = 2
	BucketFactor10  = 10
	BucketCount6    = 6
	BucketCount12   = 12
	BucketCount15   = 15
)
