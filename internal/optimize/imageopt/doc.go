// Package imageopt re-encodes images into their smallest acceptable form:
// format normalisation, retina downscaling, metadata policy, and an adaptive
// JPEG quality search when a straight re-encode does not beat the source.
package imageopt
