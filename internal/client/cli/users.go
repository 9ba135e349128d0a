package cli

import (
	"context"

	"github.com/avoronov/filevault/internal/client/models"
)

// Users prints the account roster with per-user MFA status. The view is
// admin-only; everyone else is sent back to their file listing.
func (a *App) Users(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if a.session.State().Role != models.RoleAdmin {
		a.println("The user roster is available to admins only.")
		return a.List(ctx)
	}

	users, err := a.users.List(ctx)
	if err != nil {
		a.println("Error:", err.Error())
		return nil
	}

	a.println("Username\tEmail\tRole\tMFA")
	for _, u := range users {
		badge := "-"
		if u.IsMFAEnabled {
			badge = "enabled"
		}
		a.printf("%s\t%s\t%s\t%s\n", u.Username, u.Email, u.Role, badge)
	}
	return nil
}
