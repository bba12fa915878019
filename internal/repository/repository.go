// Package repository provides the data access layer for the booking service.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Repository is the store capability shared by every entity type.
type Repository[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindBy(ctx context.Context, column string, value any) ([]T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int64) error
}

type gormRepository[T any] struct {
	db   *gorm.DB
	name string
}

// New creates a Repository for entity type T backed by db.
func New[T any](db *gorm.DB, name string) Repository[T] {
	return &gormRepository[T]{db: db, name: name}
}

func (r *gormRepository[T]) conn(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db)
}

func (r *gormRepository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	if err := r.conn(ctx).First(&entity, id).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s by id %d: %w", r.name, id, translate(err))
	}
	return &entity, nil
}

func (r *gormRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.conn(ctx).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.name, translate(err))
	}
	return entities, nil
}

// FindBy filters on a single column. column must be a trusted identifier.
func (r *gormRepository[T]) FindBy(ctx context.Context, column string, value any) ([]T, error) {
	var entities []T
	err := r.conn(ctx).Where(fmt.Sprintf("%s = ?", column), value).Order("id").Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by %s: %w", r.name, column, translate(err))
	}
	return entities, nil
}

func (r *gormRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.name, translate(err))
	}
	return nil
}

func (r *gormRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.conn(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return fmt.Errorf("failed to update %s: %w", r.name, translate(err))
	}
	return nil
}

func (r *gormRepository[T]) Delete(ctx context.Context, id int64) error {
	var entity T
	result := r.conn(ctx).Delete(&entity, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s id %d: %w", r.name, id, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete %s id %d: %w", r.name, id, ErrNotFound)
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
