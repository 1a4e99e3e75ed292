// Package stats tracks per-deck review and generation counters in the
// shared sqlite database.
package stats
