// Package videoopt transcodes video through an external encoder, scraping
// its periodic time-position output into percentage progress. It supports
// frame-rate capping, hardware encoding with software fallback, audio
// removal, playback-speed adjustment, and an animated-GIF export path.
package videoopt
