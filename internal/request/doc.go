// Package request defines the optimisation request and result model shared
// by the coordinator, the optimisers, and external callers.
package request
