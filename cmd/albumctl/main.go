package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"album/internal/client/api"
	"album/internal/client/droptarget"
	"album/internal/client/move"
	"album/internal/client/session"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

var (
	serverURL string
	token     string
	timeout   time.Duration
	verbose   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "albumctl",
		Short: "Manage a photo album from the command line",
		Long: `albumctl talks to an album server to browse and reorganise folders and photos.

Folders can be named by id or by path from the root, e.g. /Vacation/Beach.

Examples:
  # Show the folder tree
  albumctl tree

  # List the second page of photos in a folder
  albumctl photos /Vacation --page 1 --page-size 8

  # Move a photo to another folder
  albumctl move <item-id> /Family`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", envOr("ALBUM_SERVER", "http://localhost:8080"), "album server base URL")
	flags.StringVar(&token, "token", os.Getenv("ALBUM_TOKEN"), "bearer token for the album server")
	flags.DurationVar(&timeout, "timeout", api.DefaultTimeout, "request timeout")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log client activity to stderr")

	rootCmd.AddCommand(
		newTreeCmd(),
		newMkdirCmd(),
		newRenameCmd(),
		newMvdirCmd(),
		newRmdirCmd(),
		newPhotosCmd(),
		newUploadCmd(),
		newRetitleCmd(),
		newMoveCmd(),
		newRmCmd(),
	)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() *slog.Logger {
	var w io.Writer = io.Discard
	level := slog.LevelInfo
	if verbose {
		w = os.Stderr
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newClient() (*api.Client, error) {
	return api.NewClient(api.Config{BaseURL: serverURL, Token: token, Timeout: timeout}, newLogger())
}

// openSession opens a session whose tree and grid are loaded
func openSession(ctx context.Context, opts move.Options) (*session.Session, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	s := session.New(client, droptarget.NewRegistry(newLogger()), opts, newLogger())
	if err := s.Open(ctx); err != nil {
		return nil, fmt.Errorf("open album: %w", err)
	}
	return s, nil
}

// resolveFolder turns an id or a /slash/path into a folder id
func resolveFolder(forest []*models.FolderTreeNode, ref string) (string, error) {
	if !strings.HasPrefix(ref, "/") {
		if tree.Find(forest, ref) == nil {
			return "", domain.NewNotFound("folder", ref)
		}
		return ref, nil
	}
	if len(forest) == 0 {
		return "", domain.NewNotFound("folder", ref)
	}

	node := forest[0]
	for _, name := range strings.Split(strings.Trim(ref, "/"), "/") {
		if name == "" {
			continue
		}
		var next *models.FolderTreeNode
		for _, child := range node.Children {
			if child.Name == name {
				next = child
				break
			}
		}
		if next == nil {
			return "", domain.NewNotFound("folder", ref)
		}
		node = next
	}
	return node.ID, nil
}

// folderRef resolves ref against the server's current tree
func folderRef(ctx context.Context, client *api.Client, ref string) (string, error) {
	forest, err := client.ListFolders(ctx)
	if err != nil {
		return "", err
	}
	return resolveFolder(forest, ref)
}
