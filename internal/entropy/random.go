// Package entropy abstracts the simulation's randomness behind a Source
// so stochastic systems (customers, contracts, events) stay deterministic
// under test. Production uses math/rand/v2; an optional random.org pool
// with a crypto/rand fallback can top the feed for live games.
package entropy

import (
	"bytes"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// Source yields the random draws the shop systems consume.
type Source interface {
	// Float returns a uniform float64 in [0, 1).
	Float() float64
	// IntN returns a uniform int in [0, n). n must be positive.
	IntN(n int) int
}

type seeded struct{ r *rand.Rand }

// NewSource returns a seeded pseudo-random source.
func NewSource(seed uint64) Source {
	return &seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seeded) Float() float64 { return s.r.Float64() }
func (s *seeded) IntN(n int) int { return s.r.IntN(n) }

// Between returns a uniform int in [min, max] inclusive.
func Between(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.IntN(max-min+1)
}

// FloatBetween returns a uniform float64 in [min, max).
func FloatBetween(src Source, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + src.Float()*(max-min)
}

// Sequence is a scripted Source for tests: Float pops values in order and
// repeats the last one when exhausted; IntN derives from Float.
type Sequence struct {
	Values []float64
	pos    int
}

func (s *Sequence) Float() float64 {
	if len(s.Values) == 0 {
		return 0.5
	}
	v := s.Values[s.pos]
	if s.pos < len(s.Values)-1 {
		s.pos++
	}
	return v
}

func (s *Sequence) IntN(n int) int {
	v := int(s.Float() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// PoolClient draws true random numbers from random.org, keeping a local
// pool and falling back to crypto/rand when the API is unreachable.
type PoolClient struct {
	apiKey string
	client *http.Client
	pool   []float64
}

// NewPoolClient returns nil when apiKey is empty; a nil client is a valid
// Source backed purely by crypto/rand.
func NewPoolClient(apiKey string) *PoolClient {
	if apiKey == "" {
		return nil
	}
	return &PoolClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Float returns a random float64 in [0, 1) from the pool, refilling from
// random.org when low.
func (c *PoolClient) Float() float64 {
	if c == nil {
		return cryptoFloat()
	}
	if len(c.pool) < 10 {
		c.refill()
	}
	if len(c.pool) == 0 {
		return cryptoFloat()
	}
	v := c.pool[0]
	c.pool = c.pool[1:]
	return v
}

// IntN returns a uniform int in [0, n).
func (c *PoolClient) IntN(n int) int {
	v := int(c.Float() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (c *PoolClient) refill() {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return
	}

	resp, err := c.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return
	}
	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return
	}

	c.pool = append(c.pool, result.Result.Random.Data...)
}

func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0.5
	}
	// 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
