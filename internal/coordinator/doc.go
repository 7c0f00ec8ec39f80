// Package coordinator schedules optimisation requests across a bounded pool
// of workers, routing each to the optimiser registered for its item type and
// publishing progress and terminal events to subscribers.
package coordinator
