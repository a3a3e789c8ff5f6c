// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/retrospect-labs/retrospect/internal/cache"
	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/logging"
	"github.com/retrospect-labs/retrospect/internal/metrics"
	"github.com/retrospect-labs/retrospect/internal/pattern"
)

// chatClient is the slice of the OpenAI client the generator needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces narrative text for story arcs.
type Generator struct {
	cfg     config.NarrativeConfig
	client  chatClient
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	store   *cache.BadgerStore
}

// New creates a Generator. store may be nil, which disables persistent
// caching. Without an API key (or with the feature disabled) every arc
// gets the template fallback.
func New(cfg config.NarrativeConfig, store *cache.BadgerStore) *Generator {
	g := &Generator{cfg: cfg, store: store}

	if cfg.Enabled && cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		g.client = openai.NewClientWithConfig(clientCfg)
	}

	if cfg.RateLimitRPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "narrative",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.NarrativeBreakerState.Set(1)
			} else {
				metrics.NarrativeBreakerState.Set(0)
			}
		},
	})

	return g
}

// ForArc returns narrative text for an arc. The persistent cache is
// consulted first; a cache hit never touches the model. Failures
// degrade to the deterministic template, never to an error: a story
// run must not fail because prose generation did.
func (g *Generator) ForArc(ctx context.Context, arc *pattern.StoryArc) string {
	key := "narrative:" + arc.ID
	if g.store != nil {
		if cached, err := g.store.Get(key); err == nil {
			metrics.NarrativeRequestsTotal.WithLabelValues("cached").Inc()
			return string(cached)
		} else if !errors.Is(err, cache.ErrNotFound) {
			logging.Warn().Err(err).Str("arc_id", arc.ID).Msg("narrative cache read failed")
		}
	}

	text, outcome := g.generate(ctx, arc)
	metrics.NarrativeRequestsTotal.WithLabelValues(outcome).Inc()

	if g.store != nil && outcome == "generated" {
		if err := g.store.Set(key, []byte(text)); err != nil {
			logging.Warn().Err(err).Str("arc_id", arc.ID).Msg("narrative cache write failed")
		}
	}
	return text
}

func (g *Generator) generate(ctx context.Context, arc *pattern.StoryArc) (text, outcome string) {
	if g.client == nil {
		return Fallback(arc), "fallback"
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Fallback(arc), "fallback"
		}
	}

	start := time.Now()
	result, err := g.breaker.Execute(func() (string, error) {
		callCtx := ctx
		if g.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()
		}
		return g.complete(callCtx, arc)
	})
	metrics.NarrativeRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Warn().Err(err).Str("arc_id", arc.ID).Msg("narrative generation failed, using fallback")
		return Fallback(arc), "error"
	}
	return result, "generated"
}

func (g *Generator) complete(ctx context.Context, arc *pattern.StoryArc) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write short, warm narrative blurbs for photo memory " +
					"collections. Two sentences at most. No emoji, no hashtags.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(arc),
			},
		},
		MaxTokens:   120,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty text")
	}
	return text, nil
}

// Prompt renders the model prompt for an arc.
func Prompt(arc *pattern.StoryArc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a narrative blurb for a photo collection titled %q (%s).\n", arc.Title, arc.Kind)
	fmt.Fprintf(&b, "It contains %d photos.\n", len(arc.PhotoIDs))
	if arc.Start != nil && arc.End != nil {
		fmt.Fprintf(&b, "Taken between %s and %s.\n",
			arc.Start.Format("January 2, 2006"), arc.End.Format("January 2, 2006"))
	}
	if arc.Summary.DominantCategory != "" {
		fmt.Fprintf(&b, "The photos are mostly about: %s.\n", arc.Summary.DominantCategory)
	}
	if arc.Summary.DominantEmotion != "" {
		fmt.Fprintf(&b, "The prevailing mood is: %s.\n", arc.Summary.DominantEmotion)
	}
	return b.String()
}

// Fallback renders the deterministic template narrative for an arc.
// Identical arcs always produce identical text.
func Fallback(arc *pattern.StoryArc) string {
	var b strings.Builder
	n := len(arc.PhotoIDs)
	noun := "photos"
	if n == 1 {
		noun = "photo"
	}

	if arc.Start != nil && arc.End != nil {
		startMonth := arc.Start.Format("January 2006")
		endMonth := arc.End.Format("January 2006")
		if startMonth == endMonth {
			fmt.Fprintf(&b, "%s: %d %s from %s.", arc.Title, n, noun, startMonth)
		} else {
			fmt.Fprintf(&b, "%s: %d %s from %s to %s.", arc.Title, n, noun, startMonth, endMonth)
		}
	} else {
		fmt.Fprintf(&b, "%s: a collection of %d %s.", arc.Title, n, noun)
	}

	if arc.Summary.DominantCategory != "" && arc.Summary.DominantEmotion != "" {
		fmt.Fprintf(&b, " Mostly %s moments with a %s mood.",
			arc.Summary.DominantCategory, arc.Summary.DominantEmotion)
	} else if arc.Summary.DominantCategory != "" {
		fmt.Fprintf(&b, " Mostly %s moments.", arc.Summary.DominantCategory)
	}
	return b.String()
}
