// Package storage persists finalized plans in NATS KV. It owns plan ID
// assignment; the planning core hands plans outward and never reads them
// back.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wayplan/wayplan/plan"
)

// BucketPlans is the KV bucket holding saved plans.
const BucketPlans = "WAYPLAN_PLANS"

// Store provides plan storage operations backed by NATS KV.
type Store struct {
	plans jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the plans bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	plans, err := getOrCreateBucket(ctx, js, BucketPlans)
	if err != nil {
		return nil, fmt.Errorf("create plans bucket: %w", err)
	}

	return &Store{plans: plans}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Wayplan %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// SavePlan assigns the plan its opaque ID and persists it.
func (s *Store) SavePlan(ctx context.Context, p *plan.Plan) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("refusing to store invalid plan: %w", err)
	}

	id := uuid.New().String()
	p.ID = id

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}

	if _, err := s.plans.Create(ctx, id, data); err != nil {
		return "", fmt.Errorf("store plan: %w", err)
	}

	return id, nil
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	entry, err := s.plans.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}

	return &p, nil
}

// ListPlans returns all saved plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	keys, err := s.plans.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list plan keys: %w", err)
	}

	plans := make([]*plan.Plan, 0, len(keys))
	for _, key := range keys {
		entry, err := s.plans.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var p plan.Plan
		if err := json.Unmarshal(entry.Value(), &p); err != nil {
			continue
		}
		plans = append(plans, &p)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	return plans, nil
}

// DeletePlan removes a plan by ID.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// isNotFound checks for the jetstream key-missing errors.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}
