// Package access resolves what an identity may do to a project.
package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"slideforge-backend/internal/models"
)

type Gate interface {
	// ResolveAccessLevel returns the identity's level on the project;
	// unknown identities get AccessNone, never an error.
	ResolveAccessLevel(ctx context.Context, projectID uuid.UUID, identity string) (models.AccessLevel, error)
	// Grant records or upgrades an identity's level.
	Grant(ctx context.Context, projectID uuid.UUID, identity string, level models.AccessLevel) error
	// Revoke removes all access for the project; used on delete.
	Revoke(ctx context.Context, projectID uuid.UUID) error
}

// GormGate backs the gate with the project_members table.
type GormGate struct {
	db *gorm.DB
}

func NewGormGate(db *gorm.DB) Gate {
	return &GormGate{db: db}
}

func (g *GormGate) ResolveAccessLevel(ctx context.Context, projectID uuid.UUID, identity string) (models.AccessLevel, error) {
	var member models.ProjectMember
	err := g.db.WithContext(ctx).
		Where("project_id = ? AND identity = ?", projectID, identity).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AccessNone, nil
	}
	if err != nil {
		return models.AccessNone, fmt.Errorf("resolve access for %s: %w", projectID, err)
	}
	return member.Level, nil
}

func (g *GormGate) Grant(ctx context.Context, projectID uuid.UUID, identity string, level models.AccessLevel) error {
	var member models.ProjectMember
	err := g.db.WithContext(ctx).
		Where("project_id = ? AND identity = ?", projectID, identity).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		member = models.ProjectMember{
			ID:        uuid.New(),
			ProjectID: projectID,
			Identity:  identity,
			Level:     level,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := g.db.WithContext(ctx).Create(&member).Error; err != nil {
			return fmt.Errorf("grant access on %s: %w", projectID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("grant access on %s: %w", projectID, err)
	}
	member.Level = level
	member.UpdatedAt = time.Now()
	if err := g.db.WithContext(ctx).Save(&member).Error; err != nil {
		return fmt.Errorf("grant access on %s: %w", projectID, err)
	}
	return nil
}

func (g *GormGate) Revoke(ctx context.Context, projectID uuid.UUID) error {
	err := g.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.ProjectMember{}).Error
	if err != nil {
		return fmt.Errorf("revoke access on %s: %w", projectID, err)
	}
	return nil
}

// MemGate is the in-memory Gate used by tests.
type MemGate struct {
	mu     sync.Mutex
	levels map[uuid.UUID]map[string]models.AccessLevel
}

func NewMemGate() *MemGate {
	return &MemGate{levels: map[uuid.UUID]map[string]models.AccessLevel{}}
}

func (g *MemGate) ResolveAccessLevel(ctx context.Context, projectID uuid.UUID, identity string) (models.AccessLevel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if lvl, ok := g.levels[projectID][identity]; ok {
		return lvl, nil
	}
	return models.AccessNone, nil
}

func (g *MemGate) Grant(ctx context.Context, projectID uuid.UUID, identity string, level models.AccessLevel) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.levels[projectID] == nil {
		g.levels[projectID] = map[string]models.AccessLevel{}
	}
	g.levels[projectID][identity] = level
	return nil
}

func (g *MemGate) Revoke(ctx context.Context, projectID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.levels, projectID)
	return nil
}
