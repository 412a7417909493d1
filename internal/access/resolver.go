package access

import (
	"context"
	"fmt"
	"strings"
)

// CanAccess answers whether the acting admin may see or act on the resource.
// Three independent grants are composed and any one suffices:
//
//  1. direct ownership of the resource,
//  2. an active delegation from the resource owner covering today,
//  3. an approved access request whose window has not yet closed.
func (s *Service) CanAccess(ctx context.Context, actingAdminID string, rt ResourceType, resourceID int64) (bool, error) {
	actingAdminID = strings.TrimSpace(actingAdminID)
	if actingAdminID == "" {
		return false, fmt.Errorf("%w: acting admin id is required", ErrInvalidInput)
	}

	owner, err := s.owners.OwnerOf(ctx, rt, resourceID)
	if err != nil {
		return false, err
	}
	if owner == "" {
		// Legacy unowned rows carry no grants to compose.
		return false, nil
	}
	if owner == actingAdminID {
		return true, nil
	}

	now := s.now().UTC()
	delegators, err := s.store.DelegatedAdminIDs(ctx, actingAdminID, DateOf(now))
	if err != nil {
		return false, err
	}
	for _, from := range delegators {
		if from == owner {
			return true, nil
		}
	}

	return s.store.ActiveGrantExists(ctx, actingAdminID, rt, resourceID, now)
}
