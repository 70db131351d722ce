package shortlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propnest/internal/auth"
	"propnest/internal/cache"
	"propnest/internal/model"
	"propnest/internal/repository"
)

// Notification kinds
const (
	KindSuccess      = "success"
	KindError        = "error"
	KindAuthRequired = "auth_required"
)

// Store is the persistence the controller needs
type Store interface {
	IsShortlisted(ctx context.Context, userID uuid.UUID, buildingID string) (bool, error)
	UpsertShortlist(ctx context.Context, userID uuid.UUID, buildingID string, shortlisted bool) error
	ShortlistedIDs(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Cache holds the last fetched shortlist of each user
type Cache interface {
	GetShortlist(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetShortlist(ctx context.Context, userID uuid.UUID, ids []string) error
}

// Notifier receives every notification the controller raises
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, n model.Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, userID uuid.UUID, n model.Notification)

func (f NotifierFunc) Notify(ctx context.Context, userID uuid.UUID, n model.Notification) {
	f(ctx, userID, n)
}

// Controller flips shortlist membership for signed-in users
type Controller struct {
	store    Store
	cache    Cache
	notifier Notifier
	logger   *zap.Logger
	locks    *keyedMutex

	mu      sync.Mutex
	pending map[uuid.UUID]int
	last    map[uuid.UUID][]string
}

// NewController creates a controller. cache and notifier may be nil.
func NewController(store Store, c Cache, notifier Notifier, logger *zap.Logger) *Controller {
	return &Controller{
		store:    store,
		cache:    c,
		notifier: notifier,
		logger:   logger,
		locks:    newKeyedMutex(),
		pending:  make(map[uuid.UUID]int),
		last:     make(map[uuid.UUID][]string),
	}
}

// Toggle flips the shortlist flag of buildingID for the session's user.
// Without a session nothing is written and the response asks for sign-in.
// Toggles of the same (user, building) pair run one at a time.
func (c *Controller) Toggle(ctx context.Context, session *auth.Session, buildingID string) (*model.ToggleShortlistResponse, error) {
	resp := &model.ToggleShortlistResponse{BuildingID: buildingID}

	if session == nil {
		resp.AuthRequired = true
		resp.Notifications = append(resp.Notifications, model.Notification{
			Kind:    KindAuthRequired,
			Title:   "Sign in to shortlist",
			Message: "Create an account or sign in to save buildings for later.",
		})
		return resp, nil
	}
	userID := session.UserID

	unlock := c.locks.Lock(userID.String() + ":" + buildingID)
	defer unlock()

	c.begin(userID)
	defer c.end(userID)

	current, err := c.store.IsShortlisted(ctx, userID, buildingID)
	if err != nil {
		return c.fail(ctx, resp, userID, fmt.Errorf("read shortlist flag: %w", err))
	}

	next := !current
	if err := c.store.UpsertShortlist(ctx, userID, buildingID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.unknownBuilding(ctx, resp, userID, err)
		}
		return c.fail(ctx, resp, userID, fmt.Errorf("upsert shortlist: %w", err))
	}
	resp.Shortlisted = next

	ids, err := c.refresh(ctx, userID)
	if err != nil {
		// the write went through; the next snapshot read refetches
		c.logger.Warn("shortlist refetch failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	} else {
		resp.Shortlist = ids
	}

	n := model.Notification{Kind: KindSuccess, Title: "Added to shortlist", Message: "You can compare it with your other picks on the shortlist page."}
	if !next {
		n = model.Notification{Kind: KindSuccess, Title: "Removed from shortlist"}
	}
	c.notify(ctx, resp, userID, n)

	c.logger.Info("shortlist toggled",
		zap.String("user_id", userID.String()),
		zap.String("building_id", buildingID),
		zap.Bool("shortlisted", next),
	)
	return resp, nil
}

// Snapshot returns the user's shortlist as a tri-state result. While a
// toggle for the user is in flight it reports loading with the last known ids.
func (c *Controller) Snapshot(ctx context.Context, userID uuid.UUID) model.Result[[]string] {
	c.mu.Lock()
	if c.pending[userID] > 0 {
		prev := c.last[userID]
		c.mu.Unlock()
		return model.LoadingWith(prev)
	}
	c.mu.Unlock()

	if c.cache != nil {
		ids, err := c.cache.GetShortlist(ctx, userID)
		if err == nil {
			return model.Success(ids)
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("shortlist cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	ids, err := c.refresh(ctx, userID)
	if err != nil {
		return model.Failure[[]string](err)
	}
	return model.Success(ids)
}

// refresh refetches the user's shortlist and replaces the cached copy.
// Refreshes of one user run one at a time so the last write always carries
// the newest read.
func (c *Controller) refresh(ctx context.Context, userID uuid.UUID) ([]string, error) {
	unlock := c.locks.Lock(userID.String())
	defer unlock()

	ids, err := c.store.ShortlistedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch shortlist: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}

	c.mu.Lock()
	c.last[userID] = ids
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.SetShortlist(ctx, userID, ids); err != nil {
			c.logger.Warn("shortlist cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return ids, nil
}

func (c *Controller) fail(ctx context.Context, resp *model.ToggleShortlistResponse, userID uuid.UUID, err error) (*model.ToggleShortlistResponse, error) {
	c.logger.Error("shortlist toggle failed",
		zap.String("user_id", userID.String()),
		zap.String("building_id", resp.BuildingID),
		zap.Error(err),
	)
	c.notify(ctx, resp, userID, model.Notification{
		Kind:    KindError,
		Title:   "Could not update shortlist",
		Message: "Please try again in a moment.",
	})
	return resp, err
}

func (c *Controller) unknownBuilding(ctx context.Context, resp *model.ToggleShortlistResponse, userID uuid.UUID, err error) (*model.ToggleShortlistResponse, error) {
	c.logger.Info("shortlist toggle for unknown building",
		zap.String("user_id", userID.String()),
		zap.String("building_id", resp.BuildingID),
	)
	c.notify(ctx, resp, userID, model.Notification{
		Kind:    KindError,
		Title:   "Building not found",
		Message: "This building is no longer listed.",
	})
	return resp, fmt.Errorf("building %s: %w", resp.BuildingID, err)
}

func (c *Controller) notify(ctx context.Context, resp *model.ToggleShortlistResponse, userID uuid.UUID, n model.Notification) {
	resp.Notifications = append(resp.Notifications, n)
	if c.notifier != nil {
		c.notifier.Notify(ctx, userID, n)
	}
}

func (c *Controller) begin(userID uuid.UUID) {
	c.mu.Lock()
	c.pending[userID]++
	c.mu.Unlock()
}

func (c *Controller) end(userID uuid.UUID) {
	c.mu.Lock()
	c.pending[userID]--
	if c.pending[userID] <= 0 {
		delete(c.pending, userID)
	}
	c.mu.Unlock()
}
