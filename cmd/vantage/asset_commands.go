package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newUploadSceneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-scene <file>",
		Short: "Upload a 3D scene file (.glb or .gltf)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.assetManager()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open scene file: %w", err)
			}
			defer file.Close()

			url, name, err := manager.UploadScene(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s\n", name)
			fmt.Fprintf(out, "URL: %s\n", url)
			return nil
		},
	}
}

func newUploadImageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <file>",
		Short: "Upload a hotspot image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.assetManager()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open image file: %w", err)
			}
			defer file.Close()

			url, err := manager.UploadHotspotImage(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", url)
			return nil
		},
	}
}

func newDeleteFileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-file <server-path>",
		Short: "Delete an uploaded file from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := apiClient.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
