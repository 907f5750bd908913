package bags

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"packly/pkg/ability"
	"packly/pkg/cache"
)

// ErrForbidden is returned when the viewer's rules only cover their own
// records and the bag belongs to someone else.
var ErrForbidden = errors.New("not permitted on this record")

// Viewer is the authenticated identity performing the operation, as attached
// by the session middleware.
type Viewer struct {
	ID   string
	Role ability.Role
}

type Service interface {
	Create(ctx context.Context, viewer Viewer, req *CreateBagRequest) (*Bag, error)
	List(ctx context.Context, viewer Viewer) ([]Bag, error)
	Get(ctx context.Context, viewer Viewer, bagID string) (*Bag, error)
	Update(ctx context.Context, viewer Viewer, bagID string, req *UpdateBagRequest) (*Bag, error)
	Delete(ctx context.Context, viewer Viewer, bagID string) error

	AddItem(ctx context.Context, viewer Viewer, bagID string, req *AddItemRequest) (*Item, error)
	UpdateItem(ctx context.Context, viewer Viewer, bagID, itemID string, req *UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, viewer Viewer, bagID, itemID string) error
}

type service struct {
	repo     Repository
	resolver ability.Resolver
	cache    cache.Service
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService builds the bag service. The cache is optional; a nil cache
// disables the read-through path.
func NewService(repo Repository, resolver ability.Resolver, cacheSvc cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		resolver: resolver,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
		logger:   slog.Default(),
	}
}

func (s *service) Create(ctx context.Context, viewer Viewer, req *CreateBagRequest) (*Bag, error) {
	ownerID, err := uuid.Parse(viewer.ID)
	if err != nil {
		return nil, ErrForbidden
	}

	bag := &Bag{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		TripDate:    req.TripDate,
	}
	if err := s.repo.CreateBag(ctx, bag); err != nil {
		return nil, err
	}

	s.invalidateList(ctx, viewer.ID)
	return bag, nil
}

func (s *service) List(ctx context.Context, viewer Viewer) ([]Bag, error) {
	// Scope "any" (admins) sees every bag; scope "own" is restricted to the
	// viewer's records.
	if s.scopeFor(viewer, ability.ActionRead) == ability.ScopeAny {
		return s.repo.ListAllBags(ctx)
	}
	return s.repo.ListBagsByOwner(ctx, viewer.ID)
}

func (s *service) Get(ctx context.Context, viewer Viewer, bagID string) (*Bag, error) {
	var bag *Bag
	var err error

	if s.cache != nil {
		var cached Bag
		cacheErr := s.cache.GetOrSet(ctx, cache.BagDetailKey(bagID), s.cacheTTL, func() (interface{}, error) {
			return s.repo.GetBagByID(ctx, bagID)
		}, &cached)
		if cacheErr == nil {
			bag = &cached
		} else if errors.Is(cacheErr, ErrBagNotFound) {
			return nil, ErrBagNotFound
		}
	}
	if bag == nil {
		bag, err = s.repo.GetBagByID(ctx, bagID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.authorize(viewer, ability.ActionRead, bag); err != nil {
		return nil, err
	}
	return bag, nil
}

func (s *service) Update(ctx context.Context, viewer Viewer, bagID string, req *UpdateBagRequest) (*Bag, error) {
	bag, err := s.repo.GetBagByID(ctx, bagID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(viewer, ability.ActionUpdate, bag); err != nil {
		return nil, err
	}

	if req.Name != nil {
		bag.Name = *req.Name
	}
	if req.Description != nil {
		bag.Description = *req.Description
	}
	if req.TripDate != nil {
		bag.TripDate = req.TripDate
	}

	if err := s.repo.UpdateBag(ctx, bag); err != nil {
		return nil, err
	}

	s.invalidate(ctx, bag)
	return bag, nil
}

func (s *service) Delete(ctx context.Context, viewer Viewer, bagID string) error {
	bag, err := s.repo.GetBagByID(ctx, bagID)
	if err != nil {
		return err
	}
	if err := s.authorize(viewer, ability.ActionDelete, bag); err != nil {
		return err
	}

	if err := s.repo.DeleteBag(ctx, bagID); err != nil {
		return err
	}

	s.invalidate(ctx, bag)
	return nil
}

func (s *service) AddItem(ctx context.Context, viewer Viewer, bagID string, req *AddItemRequest) (*Item, error) {
	bag, err := s.repo.GetBagByID(ctx, bagID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(viewer, ability.ActionUpdate, bag); err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	item := &Item{
		BagID:    bag.ID,
		Name:     req.Name,
		Quantity: quantity,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx, bag)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, viewer Viewer, bagID, itemID string, req *UpdateItemRequest) (*Item, error) {
	bag, err := s.repo.GetBagByID(ctx, bagID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(viewer, ability.ActionUpdate, bag); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.BagID != bag.ID {
		return nil, ErrItemNotFound
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Packed != nil {
		item.Packed = *req.Packed
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx, bag)
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, viewer Viewer, bagID, itemID string) error {
	bag, err := s.repo.GetBagByID(ctx, bagID)
	if err != nil {
		return err
	}
	if err := s.authorize(viewer, ability.ActionUpdate, bag); err != nil {
		return err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.BagID != bag.ID {
		return ErrItemNotFound
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	s.invalidate(ctx, bag)
	return nil
}

// authorize applies the scope the viewer's rules grant for the action on
// bags: "any" passes, "own" requires ownership.
func (s *service) authorize(viewer Viewer, action ability.Action, bag *Bag) error {
	switch s.scopeFor(viewer, action) {
	case ability.ScopeAny:
		return nil
	case ability.ScopeOwn:
		if bag.OwnerID.String() == viewer.ID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

func (s *service) scopeFor(viewer Viewer, action ability.Action) ability.Scope {
	rules := s.resolver.ResolveForRole(viewer.Role)
	scope, ok := rules.ScopeFor(action, ability.SubjectBag)
	if !ok {
		return ability.Scope("")
	}
	return scope
}

func (s *service) invalidate(ctx context.Context, bag *Bag) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.BagDetailKey(bag.ID.String())); err != nil {
		s.logger.Warn("bag cache invalidation failed", slog.Any("error", err))
	}
	s.invalidateList(ctx, bag.OwnerID.String())
}

func (s *service) invalidateList(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.BagListKey(ownerID)); err != nil {
		s.logger.Warn("bag list cache invalidation failed", slog.Any("error", err))
	}
}
