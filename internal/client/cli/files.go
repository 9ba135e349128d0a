package cli

import (
	"context"
	"strconv"
)

// parseID converts a command argument into a file identifier.
func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil && id > 0
}

// List prints the user's file roster.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}

	files, err := a.files.List(ctx)
	if err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	if len(files) == 0 {
		a.println("No files yet. Use 'upload <path>' to add one.")
		return nil
	}

	a.println("ID\tName\tType\tSize\tUploaded\tOwner")
	for _, f := range files {
		a.printf("%d\t%s\t%s\t%d\t%s\t%s\n",
			f.ID, f.Filename, f.ContentType, f.Size, f.UploadedAt.Format("2006-01-02 15:04"), f.Owner)
	}
	return nil
}

// View shows a file's content summary. Cached copies are served without a
// network round trip.
func (a *App) View(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if len(args) != 1 {
		a.println("Usage: view <id>")
		return nil
	}
	id, ok := parseID(args[0])
	if !ok {
		a.println("Usage: view <id>")
		return nil
	}

	blob, cached, err := a.files.View(ctx, id)
	if err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.printBlob(blob.ContentType, blob.Content, cached)
	return nil
}

// Shared shows a file published through a share link. No login is required:
// share links are the anonymous access path.
func (a *App) Shared(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		a.println("Usage: shared <share-id>")
		return nil
	}

	blob, cached, err := a.files.ViewShared(ctx, args[0])
	if err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.printBlob(blob.ContentType, blob.Content, cached)
	return nil
}

// Upload sends a local file to the server.
func (a *App) Upload(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if len(args) != 1 {
		a.println("Usage: upload <path>")
		return nil
	}

	if err := a.files.Upload(ctx, args[0]); err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.println("Uploaded.")
	return a.List(ctx)
}

// Delete removes a file on the server. The cached copy, if any, ages out of
// the cache on its own.
func (a *App) Delete(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if len(args) != 1 {
		a.println("Usage: delete <id>")
		return nil
	}
	id, ok := parseID(args[0])
	if !ok {
		a.println("Usage: delete <id>")
		return nil
	}

	if err := a.files.Delete(ctx, id); err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.println("Deleted.")
	return a.List(ctx)
}

// Share creates a share link for a file and prints its identifier.
func (a *App) Share(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if len(args) != 1 {
		a.println("Usage: share <id>")
		return nil
	}
	id, ok := parseID(args[0])
	if !ok {
		a.println("Usage: share <id>")
		return nil
	}

	shareID, err := a.files.Share(ctx, id)
	if err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.println("Share id:", shareID)
	a.printf("Anyone can view it with: shared %s\n", shareID)
	return nil
}

// Download saves a file to the local disk.
func (a *App) Download(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Log in first.")
		return nil
	}
	if len(args) != 2 {
		a.println("Usage: download <id> <path>")
		return nil
	}
	id, ok := parseID(args[0])
	if !ok {
		a.println("Usage: download <id> <path>")
		return nil
	}

	if err := a.files.Download(ctx, id, args[1]); err != nil {
		a.println("Error:", err.Error())
		return nil
	}
	a.println("Saved to", args[1])
	return nil
}

// printBlob summarizes viewed content. The content itself is a data URI; the
// CLI prints its size and type rather than dumping binary to the terminal.
func (a *App) printBlob(contentType, dataURI string, cached bool) {
	source := "network"
	if cached {
		source = "cache"
	}
	a.printf("Content type: %s (from %s)\n", contentType, source)
	a.printf("Data URI (%d bytes): %s\n", len(dataURI), truncate(dataURI, 96))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
