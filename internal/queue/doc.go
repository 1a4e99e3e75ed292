// Package queue implements the priority queue that orders keywords for
// background sentence generation.
package queue
