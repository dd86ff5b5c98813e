package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vydaje/internal/core"
)

// NewGroup builds a group from a name and an initial member list. Member
// names are trimmed; duplicates and groups with fewer than two members are
// rejected.
func NewGroup(name string, members []string, now time.Time) (core.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Group{}, core.MissingFieldError{Field: "name"}
	}

	cleaned := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		for _, existing := range cleaned {
			if existing == m {
				return core.Group{}, core.ErrDuplicateMember
			}
		}
		cleaned = append(cleaned, m)
	}
	if len(cleaned) < 2 {
		return core.Group{}, core.ErrGroupTooSmall
	}

	return core.Group{
		ID:        uuid.New().String(),
		Name:      name,
		Members:   cleaned,
		CreatedAt: now,
	}, nil
}

// AddMember appends a new member. The name must be non-empty and unique
// within the group.
func AddMember(group *core.Group, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.MissingFieldError{Field: "member"}
	}
	if group.HasMember(name) {
		return core.ErrDuplicateMember
	}
	group.Members = append(group.Members, name)
	return nil
}

// RemoveMember removes a member from the group. The group must keep at
// least two members. Historical transactions referencing the removed member
// stay in the ledger; the balance fold skips departed members on its own.
func RemoveMember(group *core.Group, name string) error {
	if len(group.Members) <= 2 {
		return core.ErrGroupTooSmall
	}
	for i, m := range group.Members {
		if m != name {
			continue
		}
		group.Members = append(group.Members[:i], group.Members[i+1:]...)
		return nil
	}
	return fmt.Errorf("member %q: %w", name, core.ErrNotMember)
}

// ClearData wipes all transactions and settlements while keeping the
// group's members and metadata.
func ClearData(group *core.Group) {
	group.Transactions = nil
	group.Settlements = nil
}
