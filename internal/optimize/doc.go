// Package optimize defines the contract each format optimiser implements,
// the error taxonomy the coordinator classifies results by, and promotion
// helpers shared by the concrete optimisers in its subpackages.
package optimize
