package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	models "album/internal/domain/models/album"
	"album/internal/tree"
)

func newTreeCmd() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the folder tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			forest, err := client.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd, forest, showIDs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "print folder ids")
	return cmd
}

func printTree(cmd *cobra.Command, forest []*models.FolderTreeNode, showIDs bool) {
	depth := map[string]int{}
	tree.Walk(forest, func(node *models.FolderTreeNode) bool {
		d := 0
		if node.ParentID != nil {
			d = depth[*node.ParentID] + 1
		}
		depth[node.ID] = d

		line := strings.Repeat("  ", d) + node.Name
		if showIDs {
			line += "  (" + node.ID + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return true
	})
}

func newMkdirCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			parentID, err := folderRef(cmd.Context(), client, parent)
			if err != nil {
				return err
			}
			folder, err := client.CreateFolder(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%s)\n", folder.Name, folder.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "/", "parent folder")
	return cmd
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder> <new-name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			folderID, err := folderRef(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			folder, err := client.RenameFolder(cmd.Context(), folderID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed folder %s to %s\n", folder.ID, folder.Name)
			return nil
		},
	}
}

func newMvdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mvdir <folder> <new-parent>",
		Short: "Move a folder below another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			forest, err := client.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			folderID, err := resolveFolder(forest, args[0])
			if err != nil {
				return err
			}
			parentID, err := resolveFolder(forest, args[1])
			if err != nil {
				return err
			}
			folder, err := client.MoveFolder(cmd.Context(), folderID, parentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved folder %s below %s\n", folder.Name, parentID)
			return nil
		},
	}
}

func newRmdirCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rmdir <folder>",
		Short: "Delete a folder with everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("rmdir deletes every subfolder and photo below %s; pass --yes to confirm", args[0])
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			folderID, err := folderRef(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			result, err := client.DeleteFolder(cmd.Context(), folderID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "FOLDERS\tPHOTOS\tBLOB FAILURES\n")
			fmt.Fprintf(w, "%d\t%d\t%d\n", len(result.FolderIDs), result.ItemCount, result.BlobFailures)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the delete")
	return cmd
}
