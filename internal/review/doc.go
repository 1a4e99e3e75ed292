// Package review drives the card render hook: it swaps cached sentences
// into the cards of the configured deck and keeps the generation pipeline
// fed with upcoming keywords.
package review
