package embedding

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// MaxInputRunes bounds the text sent to the backend.
	MaxInputRunes = 10000

	zeroThreshold = 1e-6
)

// Client wraps an Embedder and guarantees a Dimensions-length vector
// for every call.
type Client struct {
	backend Embedder
	logger  zerolog.Logger
	noise   func() float32
}

// NewClient wraps backend.
func NewClient(backend Embedder, logger zerolog.Logger) *Client {
	return &Client{
		backend: backend,
		logger:  logger.With().Str("component", "embedding").Logger(),
		noise:   noiseValue,
	}
}

// Name reports the underlying backend.
func (c *Client) Name() string { return c.backend.Name() }

// Embed returns a vector of exactly Dimensions values. Empty input, backend
// failures and all-zero vectors yield random low-magnitude noise instead of
// an error.
func (c *Client) Embed(ctx context.Context, text string) []float32 {
	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Debug().Msg("empty text, using noise vector")
		return c.noiseVector()
	}
	if r := []rune(text); len(r) > MaxInputRunes {
		text = string(r[:MaxInputRunes])
	}

	vec, err := c.backend.Embed(ctx, text)
	if err != nil {
		c.logger.Warn().Err(err).Str("backend", c.backend.Name()).Msg("embedding failed, using noise vector")
		return c.noiseVector()
	}

	vec = fit(vec, c.noise)
	if isZero(vec) {
		c.logger.Warn().Str("backend", c.backend.Name()).Msg("zero embedding, using noise vector")
		return c.noiseVector()
	}
	return vec
}

// fit pads with noise or truncates vec to Dimensions.
func fit(vec []float32, noise func() float32) []float32 {
	switch {
	case len(vec) == Dimensions:
		return vec
	case len(vec) > Dimensions:
		return vec[:Dimensions]
	}
	out := make([]float32, Dimensions)
	copy(out, vec)
	for i := len(vec); i < Dimensions; i++ {
		out[i] = noise()
	}
	return out
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if math.Abs(float64(v)) > zeroThreshold {
			return false
		}
	}
	return true
}

func (c *Client) noiseVector() []float32 {
	out := make([]float32, Dimensions)
	for i := range out {
		out[i] = c.noise()
	}
	return out
}

// noiseValue returns a value in ±[0.001, 0.01).
func noiseValue() float32 {
	v := 0.001 + rand.Float32()*0.009
	if rand.IntN(2) == 0 {
		return -v
	}
	return v
}
