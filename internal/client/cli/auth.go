package cli

import (
	"context"
	"time"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details and attempts to create a new
// account. Validation failures and server rejections are reported through the
// recorded session error; I/O errors reading the prompts are returned as-is.
//
// On success the user is nudged toward enabling multi-factor authentication,
// which they are free to skip.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	roleText, err := getSimpleText(a.reader, "Role (admin/user/guest, default user)", a.out)
	if err != nil {
		return err
	}
	if roleText == "" {
		roleText = string(models.RoleUser)
	}
	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}

	st := a.session.Register(ctx, username, email, password, confirm, models.Role(roleText))
	if st.Error != "" {
		a.println("Error:", st.Error)
		return nil
	}

	a.println("Account created.")
	a.println("You can enable multi-factor authentication now with 'mfa', or skip it and start with 'list'.")
	return nil
}

// Login prompts for credentials and authenticates. When the server answers
// with a multi-factor challenge, the user is told to run 'verify'; the
// identity shown by 'whoami' does not change until the code is accepted.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}

	st := a.session.Login(ctx, username, password)
	if st.Error != "" {
		a.println("Error:", st.Error)
		return nil
	}
	if st.Code == api.MFARequiredCode {
		a.println("Multi-factor authentication required. Run 'verify' and enter your authenticator code.")
		return nil
	}

	a.printf("Welcome, %s (%s)\n", st.Username, st.Role)
	return nil
}

// WhoAmI prints the current identity snapshot.
func (a *App) WhoAmI(ctx context.Context) error {
	st := a.session.State()
	if st.Username == "" {
		a.println("Not logged in.")
		return nil
	}
	a.printf("Username: %s\nEmail: %s\nRole: %s\nMFA enabled: %t\n",
		st.Username, st.Email, st.Role, st.IsMFAEnabled)
	if a.tokens != nil {
		if exp, ok := a.tokens.SessionExpiresAt(); ok {
			a.printf("Session expires: %s\n", exp.Local().Format(time.RFC1123))
		}
	}
	if st.Code != "" {
		a.println("A multi-factor challenge is pending; run 'verify'.")
	}
	return nil
}

// Logout ends the session. The confirmation message is printed exactly once,
// driven by the one-shot flag the session manager keeps.
func (a *App) Logout(ctx context.Context) error {
	st := a.session.Logout(ctx)
	if st.Error != "" {
		a.println("Error:", st.Error)
		return nil
	}
	if a.session.ConsumeLogoutSuccess() {
		a.println("Logged out.")
	}
	return nil
}
