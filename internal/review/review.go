package review

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/socialismbuilder/ContextFlow/internal/cache"
	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/keyword"
	"github.com/socialismbuilder/ContextFlow/internal/queue"
	"github.com/socialismbuilder/ContextFlow/internal/render"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// Phase identifies which side of the card is being rendered.
type Phase string

const (
	PhaseQuestion Phase = "question"
	PhaseAnswer   Phase = "answer"
)

// Card is the slice of host card state the controller needs.
type Card struct {
	ID     int64
	Deck   string
	Ord    int
	Fields []string
}

// Host is the narrow surface of the hosting application the controller
// talks back to. Implementations must make Redraw and Notify safe to call
// from any goroutine.
type Host interface {
	// UpcomingCards returns up to limit cards in review order.
	UpcomingCards(limit int) []Card
	// CurrentCardID returns the ID of the card on screen, 0 if none.
	CurrentCardID() int64
	// Redraw re-renders the current card, re-entering the render hook.
	Redraw()
	// Notify shows a transient message to the user.
	Notify(message string)
}

// Recorder receives review outcomes. May be nil.
type Recorder interface {
	RecordReview(deck string, cacheHit bool) error
}

// Controller owns all review-time state: the remembered pair for the card
// on screen and the poller waiting for an in-flight generation. One
// Controller serves one review session.
type Controller struct {
	host     Host
	store    *config.Store
	cache    *cache.Cache
	queue    *queue.TaskQueue
	renderer *render.Renderer
	recorder Recorder
	logger   *slog.Logger

	mu         sync.Mutex
	currentID  int64
	currentKey string
	current    sentence.Pair
	hasCurrent bool
	poll       chan struct{}
	closed     bool
}

// NewController wires a Controller. recorder and logger may be nil.
func NewController(host Host, store *config.Store, c *cache.Cache, q *queue.TaskQueue,
	r *render.Renderer, recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		host:     host,
		store:    store,
		cache:    c,
		queue:    q,
		renderer: r,
		recorder: recorder,
		logger:   logger,
	}
}

// deckMatches reports whether cardDeck is base itself or one of its
// subdecks.
func deckMatches(cardDeck, base string) bool {
	return cardDeck == base || strings.HasPrefix(cardDeck, base+"::")
}

// keywordOf extracts the normalized keyword from the configured field,
// falling back to the first field when the index is out of range.
func keywordOf(card Card, fieldIndex int) string {
	if len(card.Fields) == 0 {
		return ""
	}
	idx := fieldIndex - 1
	if idx < 0 || idx >= len(card.Fields) {
		idx = 0
	}
	return keyword.Normalize(card.Fields[idx])
}

// RenderHook rewrites the card HTML for the configured deck. Cards outside
// the deck, non-first card templates and cards without a usable keyword
// pass through untouched. Any internal panic is reported and the original
// HTML returned, so a bug here can never take the review session down.
func (c *Controller) RenderHook(html string, card Card, phase Phase) (out string) {
	out = html
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("render hook panicked", "panic", r)
			c.host.Notify("例句渲染出错，已显示原始卡片")
			out = html
		}
	}()

	cfg := c.store.Snapshot()
	base, fieldIndex := config.ParseDeckSpec(cfg.DeckName)
	if base == "" || !deckMatches(card.Deck, base) || card.Ord != 0 {
		return html
	}
	kw := keywordOf(card, fieldIndex)
	if kw == "" {
		return html
	}

	switch phase {
	case PhaseQuestion:
		return c.renderQuestion(html, card, kw, base, cfg)
	case PhaseAnswer:
		return c.renderAnswer(html, card)
	default:
		return html
	}
}

func (c *Controller) renderQuestion(html string, card Card, kw, deck string, cfg config.Config) string {
	c.stopPoller()

	pair, remaining, ok := c.cache.PopOne(kw)
	if ok {
		c.mu.Lock()
		c.currentID = card.ID
		c.currentKey = kw
		c.current = pair
		c.hasCurrent = true
		c.mu.Unlock()

		if remaining == 0 {
			// Refill behind all lookahead work so the next review of
			// this card does not stall.
			c.queue.EnqueueLowest(kw)
		}
		c.record(deck, true)
		c.reorganize(kw, cfg)
		return c.renderer.Front(pair.Sentence)
	}

	c.mu.Lock()
	c.currentID = card.ID
	c.currentKey = kw
	c.hasCurrent = false
	c.mu.Unlock()

	c.queue.EnqueueImmediate(kw)
	c.record(deck, false)
	c.startPoller(card.ID, kw, cfg)
	c.reorganize(kw, cfg)
	return c.renderer.FrontPlaceholder()
}

func (c *Controller) renderAnswer(html string, card Card) string {
	c.mu.Lock()
	hasPair := c.hasCurrent && c.currentID == card.ID
	p := c.current
	c.mu.Unlock()

	if !hasPair {
		return html
	}
	return c.renderer.Back(p, html)
}

func (c *Controller) record(deck string, hit bool) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordReview(deck, hit); err != nil {
		c.logger.Warn("failed to record review", "error", err)
	}
}

// reorganize realigns queue priorities with the upcoming review order,
// skipping the keyword on screen and anything already cached.
func (c *Controller) reorganize(currentKw string, cfg config.Config) {
	base, fieldIndex := config.ParseDeckSpec(cfg.DeckName)

	raws := make([]string, 0, cfg.LookaheadCount)
	for _, card := range c.host.UpcomingCards(cfg.LookaheadCount) {
		if card.Ord != 0 || !deckMatches(card.Deck, base) {
			continue
		}
		idx := fieldIndex - 1
		if idx < 0 || idx >= len(card.Fields) {
			idx = 0
		}
		if len(card.Fields) > idx {
			raws = append(raws, card.Fields[idx])
		}
	}

	upcoming := make([]string, 0, len(raws))
	for _, kw := range keyword.NormalizeAll(raws) {
		if kw == currentKw || c.cache.Has(kw) {
			continue
		}
		upcoming = append(upcoming, kw)
	}
	c.queue.Reorganize(upcoming)
}

// startPoller watches the cache for kw and redraws the card once the pairs
// arrive. It gives up silently after the configured timeout; the placeholder
// simply stays on screen.
func (c *Controller) startPoller(cardID int64, kw string, cfg config.Config) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.poll = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		deadline := time.After(cfg.PollTimeout)

		for {
			select {
			case <-stop:
				return
			case <-deadline:
				c.logger.Warn("gave up waiting for generation", "keyword", kw)
				return
			case <-ticker.C:
				if !c.cache.Has(kw) {
					continue
				}
				if c.host.CurrentCardID() == cardID {
					c.host.Redraw()
				}
				return
			}
		}
	}()
}

func (c *Controller) stopPoller() {
	c.mu.Lock()
	if c.poll != nil {
		close(c.poll)
		c.poll = nil
	}
	c.mu.Unlock()
}

// Close stops any outstanding poller. The controller must not be used
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.poll != nil {
		close(c.poll)
		c.poll = nil
	}
	c.mu.Unlock()
}
