package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"album/internal/client/droptarget"
	"album/internal/client/move"
	"album/internal/client/paging"
	"album/internal/config"
)

func newPhotosCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		filter   string
	)
	cmd := &cobra.Command{
		Use:   "photos [folder]",
		Short: "List one page of photos, all folders when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, move.Options{})
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				folderID, err := resolveFolder(s.Tree.Forest(), args[0])
				if err != nil {
					return err
				}
				if err := s.Select(ctx, &folderID); err != nil {
					return err
				}
			}
			if err := s.Items.SetPageSize(ctx, pageSize); err != nil {
				return err
			}
			if filter != "" {
				if err := s.Items.SetFilter(ctx, filter); err != nil {
					return err
				}
			}
			s.Items.SetPage(page)

			printView(s.Items.View())
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page index, starting at 0")
	cmd.Flags().IntVar(&pageSize, "page-size", config.DefaultPageSize, fmt.Sprintf("photos per page, one of %v", config.AllowedPageSizes))
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only titles containing this text")
	return cmd
}

func printView(view paging.View) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tFOLDER\tCREATED\n")
	for _, item := range view.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.Title, item.FolderID, item.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("\nPage %d of %d (%d photos)\n", view.PageIndex+1, max(view.PageCount, 1), view.Total)
}

func newUploadCmd() *cobra.Command {
	var (
		folder string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			folderID, err := folderRef(cmd.Context(), client, folder)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			if title == "" {
				title = strings.TrimSuffix(name, filepath.Ext(name))
			}
			item, err := client.UploadItem(cmd.Context(), folderID, title, name, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s) to %s\n", item.Title, item.ID, item.URL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&folder, "folder", "d", "/", "destination folder")
	cmd.Flags().StringVarP(&title, "title", "t", "", "photo title, the file name by default")
	return cmd
}

func newRetitleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retitle <item-id> <title>",
		Short: "Change a photo's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			item, err := client.RenameItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retitled %s to %s\n", item.ID, item.Title)
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	var reconcile bool
	cmd := &cobra.Command{
		Use:   "move <item-id> <folder>",
		Short: "Move a photo to another folder",
		Long: `Move a photo to another folder.

The move is dropped on the folder's drop target, exactly as when dragging the
photo onto the tree, and reports whether it committed or rolled back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, move.Options{ReconcileOnFailure: reconcile, Timeout: timeout})
			if err != nil {
				return err
			}
			defer s.Close()

			folderID, err := resolveFolder(s.Tree.Forest(), args[1])
			if err != nil {
				return err
			}
			outcome, err := s.Drop(ctx, args[0], droptarget.Token(folderID))
			if err != nil {
				return err
			}
			if outcome.State != move.Committed {
				return fmt.Errorf("move %s: %s", outcome.State, outcome.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", outcome.ItemID, outcome.FolderID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reconcile, "reconcile", false, "refetch the listing when the server can't be reached")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>...",
		Short: "Delete photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := client.DeleteItem(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}
