// Package keyword normalizes raw flashcard field values into the vocabulary
// keywords that identify cache entries and queue items.
package keyword
