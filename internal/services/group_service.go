package services

import (
	"context"
	"fmt"
	"time"

	"vydaje/internal/balance"
	"vydaje/internal/core"
	"vydaje/internal/ledger"
	"vydaje/internal/storage"
)

// GroupService covers group lifecycle, membership, categories and
// settlements.
type GroupService struct {
	store storage.Store
}

func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

func (s *GroupService) CreateGroup(ctx context.Context, name string, members []string) (core.Group, error) {
	group, err := ledger.NewGroup(name, members, time.Now())
	if err != nil {
		return core.Group{}, err
	}
	if err := s.store.CreateGroup(ctx, group, ledger.DefaultCategories()); err != nil {
		return core.Group{}, fmt.Errorf("persist group: %w", err)
	}
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	return s.store.GetGroup(ctx, id)
}

func (s *GroupService) ListGroups(ctx context.Context) ([]core.Group, error) {
	return s.store.ListGroups(ctx)
}

// DeleteGroup removes a group and everything in it. The last remaining
// group cannot be deleted.
func (s *GroupService) DeleteGroup(ctx context.Context, id string) error {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	if len(groups) <= 1 {
		return core.ErrLastGroup
	}
	return s.store.DeleteGroup(ctx, id)
}

func (s *GroupService) AddMember(ctx context.Context, groupID, name string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := ledger.AddMember(group, name); err != nil {
		return err
	}
	return s.store.SetMembers(ctx, groupID, group.Members)
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, name string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := ledger.RemoveMember(group, name); err != nil {
		return err
	}
	return s.store.SetMembers(ctx, groupID, group.Members)
}

func (s *GroupService) ListCategories(ctx context.Context, groupID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, groupID)
}

func (s *GroupService) AddCategory(ctx context.Context, groupID string, c core.Category) error {
	categories, err := s.store.ListCategories(ctx, groupID)
	if err != nil {
		return err
	}
	categories, err = ledger.AddCategory(categories, c)
	if err != nil {
		return err
	}
	return s.store.SaveCategories(ctx, groupID, categories)
}

func (s *GroupService) RemoveCategory(ctx context.Context, groupID, name string) error {
	categories, err := s.store.ListCategories(ctx, groupID)
	if err != nil {
		return err
	}
	categories, err = ledger.RemoveCategory(categories, name)
	if err != nil {
		return err
	}
	return s.store.SaveCategories(ctx, groupID, categories)
}

func (s *GroupService) ClearGroupData(ctx context.Context, groupID string) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.store.ClearGroupData(ctx, groupID)
}

// RecordSettlement marks a planned transfer as paid. The transfer must
// reference current members; the amount is recorded as given.
func (s *GroupService) RecordSettlement(ctx context.Context, groupID string, transfer balance.Transfer, actor string) (core.Settlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.Settlement{}, err
	}
	if !group.HasMember(transfer.From) || !group.HasMember(transfer.To) {
		return core.Settlement{}, fmt.Errorf("transfer %s -> %s: %w", transfer.From, transfer.To, core.ErrNotMember)
	}
	if transfer.Amount <= 0 {
		return core.Settlement{}, core.ErrInvalidAmount
	}

	settlement := balance.NewSettlement(transfer, actor, time.Now())
	if err := s.store.AppendSettlement(ctx, groupID, settlement); err != nil {
		return core.Settlement{}, fmt.Errorf("persist settlement: %w", err)
	}
	return settlement, nil
}
