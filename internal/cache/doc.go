// Package cache persists generated sentence pairs keyed by vocabulary
// keyword. Reads are served from an in-memory map; every mutation is
// committed to sqlite before it is acknowledged.
package cache
