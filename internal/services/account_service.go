package services

import (
	"context"
	"fmt"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// AccountService removes user accounts. Seats are released before the record goes,
// so a failed cascade leaves the user in place to retry.
type AccountService struct {
	Users     repositories.UserStore
	Cascade   CascadeService
	RequestID string
}

func (s AccountService) RemoveUser(ctx context.Context, actor domain.Actor, userID string) (int, error) {
	if !actor.IsAdmin() {
		return 0, domain.PermissionError{Msg: "only admins can remove users"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ValidationError{Field: "userId", Msg: "is required"}
	}
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if domain.ParseRole(user.Role) == domain.RoleAdmin {
		return 0, domain.PermissionError{Msg: "admin accounts cannot be removed"}
	}

	// Claims that reach a trip after its sweep must fail.
	s.Cascade.Ledger.RetireHolder(user.ID)
	freed, err := s.Cascade.ReleaseUser(ctx, user.ID)
	if err != nil {
		s.Cascade.Ledger.ReinstateHolder(user.ID)
		return freed, err
	}
	if err := s.Users.DeleteUser(ctx, user.ID); err != nil {
		s.Cascade.Ledger.ReinstateHolder(user.ID)
		return freed, err
	}
	utils.LogEvent(s.RequestID, "account", "remove_user", fmt.Sprintf("user_id=%s freed=%d by=%s", user.ID, freed, actor.UserID))
	return freed, nil
}
