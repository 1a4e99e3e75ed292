// Package render builds the HTML that replaces a flashcard's question and
// answer sides with generated example sentences.
package render
