package api

import "time"

// Read cache timing. Batch jobs run out of process, so entries stay short-lived.
const (
	QueryCacheExpiration      = 30 * time.Second
	QueryCacheCleanupInterval = time.Minute
)

// Route parameters and query keys
const (
	paramID            = "id"
	queryMunicipality  = "municipality"
	cacheKeySeparator  = " "
	maxRequestBodySize = "64K"
)
