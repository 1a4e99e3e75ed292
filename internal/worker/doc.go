// Package worker runs the background goroutines that turn queued keywords
// into cached sentence pairs.
package worker
