package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Push locally cached annotations to the server document",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, cleanup, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer cleanup()

			// Carry over the server's scene list when it is reachable so a
			// save does not drop scenes the cache knows nothing about.
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if doc, err := apiClient.FetchDocument(cmd.Context()); err == nil {
				sess.SetScenes(doc.Scenes)
			}

			result := sess.Save(cmd.Context())
			if !result.Success {
				return fmt.Errorf("save failed: %w", result.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved project document (%d scenes)\n", result.Scenes)
			return nil
		},
	}
}

func newGCCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove blob store entries no hotspot references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sess, blobs, cleanup, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := os.Stat(cfg.Paths.BlobDB); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No blob store present, nothing to collect")
				return nil
			}
			if err := blobs.Open(); err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}
			if err := sess.CollectBlobGarbage(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Blob garbage collection complete")
			return nil
		},
	}
}
