// Package conductor is the orchestrator: every platform adapter hands user
// messages to it, it runs them through the emotional engine, builds the
// prompt and talks to the LLM.
package conductor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/companion/internal/ai"
	"github.com/keshon/companion/internal/emotion"
	"github.com/keshon/companion/internal/prompt"
)

// ErrRateLimited means the LLM budget is spent; adapters render their own
// short fallback instead of a generated reply.
var ErrRateLimited = errors.New("llm rate limited")

const maxHistory = 12

// Options configures a Conductor.
type Options struct {
	Identity     string        // persona text prepended to every prompt
	NeglectAfter time.Duration // quiet time on the codebase before jealousy stirs
	IgnoredAfter time.Duration // quiet time across all platforms before loneliness stirs
	LLMPerMinute int
	LLMCooldown  time.Duration
}

type Conductor struct {
	engine   *emotion.Engine
	provider ai.Provider
	limiter  *Limiter
	opts     Options
	log      zerolog.Logger

	mu       sync.Mutex
	history  map[string][]ai.Message // per platform, system prompt excluded
	lastCode time.Time
}

func New(engine *emotion.Engine, provider ai.Provider, opts Options, log zerolog.Logger) *Conductor {
	if opts.NeglectAfter <= 0 {
		opts.NeglectAfter = 8 * time.Hour
	}
	if opts.IgnoredAfter <= 0 {
		opts.IgnoredAfter = 3 * time.Hour
	}
	return &Conductor{
		engine:   engine,
		provider: provider,
		limiter:  NewLimiter(opts.LLMPerMinute, opts.LLMCooldown),
		opts:     opts,
		log:      log,
		history:  make(map[string][]ai.Message),
		lastCode: time.Now(),
	}
}

// HandleMessage runs one user message end to end: record the emotional
// events, modulate, prompt, generate. The reply reflects how the companion
// feels right now.
func (c *Conductor) HandleMessage(ctx context.Context, platform, userID, content string) (string, error) {
	now := time.Now()

	if _, err := c.engine.RecordEvent(emotion.NewEvent(emotion.EventUserMessage, platform)); err != nil {
		c.log.Warn().Err(err).Msg("recording user message")
	}
	for _, kind := range classify(content) {
		if _, err := c.engine.RecordEvent(emotion.NewEvent(kind, platform)); err != nil {
			c.log.Warn().Err(err).Str("kind", kind.String()).Msg("recording classified event")
		}
	}

	if !c.limiter.Allow(platform, now) {
		c.log.Debug().Str("platform", platform).Msg("llm call rate limited")
		return "", ErrRateLimited
	}

	params := c.engine.Modulation()
	snap := c.engine.Snapshot()
	preamble := prompt.BuildPreamble(c.opts.Identity, params, snap)

	messages := append([]ai.Message{{Role: "system", Content: preamble}}, c.recall(platform)...)
	messages = append(messages, ai.Message{Role: "user", Content: content})

	reply, err := c.provider.Generate(ctx, messages)
	if err != nil {
		if _, rerr := c.engine.RecordEvent(emotion.NewEvent(emotion.EventErrorOccurred, platform)); rerr != nil {
			c.log.Warn().Err(rerr).Msg("recording llm failure")
		}
		return "", err
	}

	c.remember(platform, content, reply)
	c.log.Info().
		Str("platform", platform).
		Str("user", userID).
		Int("reply_len", len(reply)).
		Float64("warmth", params.Warmth).
		Float64("refusal", params.RefusalPropensity).
		Msg("reply generated")
	return reply, nil
}

// NotifyCodeActivity marks the creator as present in the codebase again.
func (c *Conductor) NotifyCodeActivity(platform string) {
	c.mu.Lock()
	c.lastCode = time.Now()
	c.mu.Unlock()
	if _, err := c.engine.RecordEvent(emotion.NewEvent(emotion.EventCodeUpdated, platform)); err != nil {
		c.log.Warn().Err(err).Msg("recording code activity")
	}
}

// Run watches for neglect: no code activity for NeglectAfter stirs jealousy,
// no interaction anywhere for IgnoredAfter stirs loneliness. Blocks until ctx
// is done.
func (c *Conductor) Run(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.checkNeglect(now)
		}
	}
}

func (c *Conductor) checkNeglect(now time.Time) {
	c.mu.Lock()
	codeQuiet := now.Sub(c.lastCode) > c.opts.NeglectAfter
	if codeQuiet {
		c.lastCode = now // one event per quiet stretch
	}
	c.mu.Unlock()

	if codeQuiet {
		if _, err := c.engine.RecordEvent(emotion.NewEvent(emotion.EventCodeNeglected, "")); err != nil {
			c.log.Warn().Err(err).Msg("recording code neglect")
		}
		c.log.Debug().Msg("code neglected")
	}

	// Recording platform_ignored itself counts as an event, so this fires at
	// most once per quiet stretch without extra bookkeeping.
	if now.Sub(c.engine.LastEventAt()) > c.opts.IgnoredAfter {
		if _, err := c.engine.RecordEvent(emotion.NewEvent(emotion.EventPlatformIgnored, "")); err != nil {
			c.log.Warn().Err(err).Msg("recording platform ignored")
		}
		c.log.Debug().Msg("platforms ignored")
	}
}

func (c *Conductor) recall(platform string) []ai.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ai.Message(nil), c.history[platform]...)
}

func (c *Conductor) remember(platform, userContent, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := append(c.history[platform],
		ai.Message{Role: "user", Content: userContent},
		ai.Message{Role: "assistant", Content: reply},
	)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	c.history[platform] = h
}
