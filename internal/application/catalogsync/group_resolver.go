package catalogsync

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

// GroupResolver maps CRM categories (at most two levels) onto POS groups,
// creating missing groups. The cache lives for one run: Prime clears it and
// seeds it from a full group listing.
//
// Every failure degrades to "no group"; nothing here aborts a run.
type GroupResolver struct {
	source CatalogSource
	store  GroupStore
	logger *zap.Logger

	mu         sync.Mutex
	enabled    bool
	groups     map[catalogsync.GroupKey]catalogsync.Group
	categories map[int64]catalogsync.Category
}

// NewGroupResolver creates a resolver. It resolves nothing until primed.
func NewGroupResolver(source CatalogSource, store GroupStore, logger *zap.Logger) *GroupResolver {
	return &GroupResolver{
		source:     source,
		store:      store,
		logger:     logger,
		groups:     make(map[catalogsync.GroupKey]catalogsync.Group),
		categories: make(map[int64]catalogsync.Category),
	}
}

// Invalidate clears all cached state and disables resolution
func (r *GroupResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	r.groups = make(map[catalogsync.GroupKey]catalogsync.Group)
	r.categories = make(map[int64]catalogsync.Category)
}

// Prime invalidates the cache and prefetches CRM categories and POS groups.
// It returns false when either listing failed; the resolver then stays
// disabled for the run.
func (r *GroupResolver) Prime(ctx context.Context) bool {
	r.Invalidate()

	categories, err := r.source.ListCategories(ctx)
	if err != nil {
		r.logger.Warn("Category prefetch failed, groups disabled for this run", zap.Error(err))
		return false
	}
	groups, err := r.store.ListGroups(ctx)
	if err != nil {
		r.logger.Warn("Group prefetch failed, groups disabled for this run", zap.Error(err))
		return false
	}

	byID := make(map[int64]catalogsync.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	// Fill parent names from the flat listing
	for id, c := range byID {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				c.ParentName = parent.Name
				byID[id] = c
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = byID
	for _, g := range groups {
		r.groups[g.Key()] = g
	}
	r.enabled = true

	r.logger.Debug("Group resolver primed",
		zap.Int("categories", len(byID)),
		zap.Int("groups", len(groups)),
	)
	return true
}

// Category returns the primed category with the given id, or nil
func (r *GroupResolver) Category(id *int64) *catalogsync.Category {
	if id == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[*id]
	if !ok {
		return nil
	}
	return &c
}

// ResolveGroupID returns the POS group id for a category, creating the parent
// and the group when missing. ok is false when the category has no group.
func (r *GroupResolver) ResolveGroupID(ctx context.Context, category *catalogsync.Category) (string, bool) {
	if category == nil || strings.TrimSpace(category.Name) == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return "", false
	}

	parentID := ""
	if category.HasParent() {
		id, ok := r.resolveLocked(ctx, category.ParentName, "")
		if !ok {
			return "", false
		}
		parentID = id
	}
	return r.resolveLocked(ctx, category.Name, parentID)
}

// resolveLocked looks up (name, parent) in the cache and creates the group on
// a miss. The new group is cached before the lock is released, so one run
// never creates the same group twice.
func (r *GroupResolver) resolveLocked(ctx context.Context, name, parentID string) (string, bool) {
	key := catalogsync.NewGroupKey(name, parentID)
	if g, ok := r.groups[key]; ok {
		return g.ID, true
	}

	created, err := r.store.CreateGroup(ctx, strings.TrimSpace(name), parentID)
	if err != nil || created == nil {
		r.logger.Warn("Failed to create POS group",
			zap.String("name", name),
			zap.String("parent_id", parentID),
			zap.Error(err),
		)
		return "", false
	}
	r.groups[key] = *created
	r.logger.Info("Created POS group",
		zap.String("group_id", created.ID),
		zap.String("name", created.Name),
		zap.String("parent_id", parentID),
	)
	return created.ID, true
}
