package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/idilsaglam/medimanage/internal/kv"
	"github.com/rs/zerolog"
)

const Key = "reminders"

// Center keeps pending requests in a kv.Store so that a separate watch
// process sees what the CLI registered. A corrupt blob reads as empty and
// is replaced by the next write.
type Center struct {
	mu  sync.Mutex
	kv  kv.Store
	log zerolog.Logger
}

func NewCenter(store kv.Store, log zerolog.Logger) *Center {
	return &Center{kv: store, log: log.With().Str("component", "center").Logger()}
}

func (c *Center) read(ctx context.Context) (map[string]Request, error) {
	pending := map[string]Request{}
	b, err := c.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return pending, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &pending); err != nil {
		c.log.Warn().Err(err).Str("key", Key).Msg("corrupt pending reminders, starting empty")
		return map[string]Request{}, nil
	}
	if pending == nil {
		pending = map[string]Request{}
	}
	return pending, nil
}

func (c *Center) write(ctx context.Context, pending map[string]Request) error {
	b, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.kv.Put(ctx, Key, b)
}

func (c *Center) Add(ctx context.Context, req Request) error {
	if req.Identifier == "" {
		return errors.New("reminder: empty identifier")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, err := c.read(ctx)
	if err != nil {
		return err
	}
	pending[req.Identifier] = req
	return c.write(ctx, pending)
}

func (c *Center) Remove(ctx context.Context, identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, err := c.read(ctx)
	if err != nil {
		return err
	}
	if _, ok := pending[identifier]; !ok {
		return nil
	}
	delete(pending, identifier)
	return c.write(ctx, pending)
}

// Pending lists registered requests ordered by time of day, then identifier.
func (c *Center) Pending(ctx context.Context) ([]Request, error) {
	c.mu.Lock()
	pending, err := c.read(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(pending))
	for _, r := range pending {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Trigger, out[j].Trigger
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		if a.Minute != b.Minute {
			return a.Minute < b.Minute
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out, nil
}
