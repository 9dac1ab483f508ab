package models

import (
	"context"
	"log"

	"github.com/Protocol-Lattice/funeral-research/pkg/cache"
)

// CachedLLM wraps an Agent and caches Generate calls by prompt.
type CachedLLM struct {
	Agent    Agent
	Cache    *cache.Cache
	FilePath string
}

// NewCachedLLM wraps agent, restoring earlier completions from filePath when
// it is set.
func NewCachedLLM(agent Agent, c *cache.Cache, filePath string) *CachedLLM {
	cl := &CachedLLM{Agent: agent, Cache: c, FilePath: filePath}
	if filePath != "" {
		if err := c.Load(filePath); err != nil {
			log.Printf("llm cache: ignoring %s: %v", filePath, err)
		}
	}
	return cl
}

// Generate checks the cache before calling the underlying agent.
func (c *CachedLLM) Generate(ctx context.Context, prompt string) (any, error) {
	key := cache.Key(prompt)
	if val, ok := c.Cache.Get(key); ok {
		return val, nil
	}

	res, err := c.Agent.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	text := Text(res)
	c.Cache.Set(key, text)
	if c.FilePath != "" {
		if err := c.Cache.Save(c.FilePath); err != nil {
			log.Printf("llm cache: save %s: %v", c.FilePath, err)
		}
	}
	return text, nil
}

var _ Agent = (*CachedLLM)(nil)
