package cli

import (
	"context"

	"github.com/avoronov/filevault/internal/client/session"
)

// MFA starts multi-factor enrollment for the logged-in account. On success
// the account is marked as enrolled and the user still has to confirm their
// authenticator with 'verify'.
func (a *App) MFA(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if st := a.session.State(); st.IsMFAEnabled && st.MFA == session.MFAVerified {
		a.println("Multi-factor authentication is already enabled.")
		return nil
	}

	st := a.session.EnableMFA(ctx)
	if st.Error != "" {
		a.println("Error:", st.Error)
		return nil
	}

	a.println("Multi-factor authentication enabled.")
	a.showQRCode(ctx)
	a.println("Run 'verify' to confirm your authenticator.")
	return nil
}

// Verify completes a pending multi-factor step: either the login-time
// challenge or the post-enrollment confirmation. It prompts for the 6-digit
// authenticator code.
func (a *App) Verify(ctx context.Context) error {
	st := a.session.State()
	if st.MFA != session.MFAAwaitingVerification {
		a.println("Nothing to verify.")
		return nil
	}

	code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator", a.out)
	if err != nil {
		return err
	}

	st = a.session.VerifyMFA(ctx, code)
	if st.Error != "" {
		a.println("Error:", st.Error)
		return nil
	}

	a.printf("Verified. Welcome, %s (%s)\n", st.Username, st.Role)
	return nil
}

// showQRCode fetches the enrollment QR code and prints it as a data URI the
// user can open in a browser. Fetch failures are reported but do not stop the
// enrollment: the secret is already active on the server.
func (a *App) showQRCode(ctx context.Context) {
	uri, err := a.session.QRCode(ctx)
	if err != nil {
		a.println("Could not fetch the QR code:", err.Error())
		return
	}
	a.println("Scan this QR code with your authenticator app (open the URI in a browser):")
	a.println(uri)
}
