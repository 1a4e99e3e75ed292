// Package sentence defines the sentence/translation pair type shared by the
// cache, the generation client and the render hook, along with its wire
// encoding (a two-element JSON string array).
package sentence
