package bags

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrBagNotFound  = errors.New("bag not found")
	ErrItemNotFound = errors.New("item not found")
)

type Repository interface {
	CreateBag(ctx context.Context, bag *Bag) error
	GetBagByID(ctx context.Context, id string) (*Bag, error)
	ListBagsByOwner(ctx context.Context, ownerID string) ([]Bag, error)
	ListAllBags(ctx context.Context) ([]Bag, error)
	UpdateBag(ctx context.Context, bag *Bag) error
	DeleteBag(ctx context.Context, id string) error

	AddItem(ctx context.Context, item *Item) error
	GetItemByID(ctx context.Context, id string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBag(ctx context.Context, bag *Bag) error {
	return r.db.WithContext(ctx).Create(bag).Error
}

func (r *repository) GetBagByID(ctx context.Context, id string) (*Bag, error) {
	var bag Bag
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&bag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBagNotFound
		}
		return nil, err
	}
	return &bag, nil
}

func (r *repository) ListBagsByOwner(ctx context.Context, ownerID string) ([]Bag, error) {
	var out []Bag
	err := r.db.WithContext(ctx).Preload("Items").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListAllBags(ctx context.Context) ([]Bag, error) {
	var out []Bag
	err := r.db.WithContext(ctx).Preload("Items").
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) UpdateBag(ctx context.Context, bag *Bag) error {
	return r.db.WithContext(ctx).Save(bag).Error
}

func (r *repository) DeleteBag(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Bag{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBagNotFound
	}
	return nil
}

func (r *repository) AddItem(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) GetItemByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItem(ctx context.Context, item *Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Item{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
