// Package chat implements the streaming word-explanation conversation.
package chat
