// Package internal holds small helpers shared across the add-on's packages.
package internal

// Version is the add-on version, bumped on release.
const Version = "1.2.0"
