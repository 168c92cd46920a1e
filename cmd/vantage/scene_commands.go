package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vantage/internal/project"
)

func newScenesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List scenes in the project document",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := apiClient.FetchDocument(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch project document: %w", err)
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(doc.Scenes)
			}

			rows := make([][]string, 0, len(doc.Scenes))
			for _, scene := range doc.Scenes {
				set, _ := doc.AnnotationsFor(scene.URL)
				rows = append(rows, []string{
					scene.Name,
					scene.URL,
					strconv.FormatFloat(scene.Scale, 'g', -1, 64),
					strconv.Itoa(len(set.Endpoints)),
					strconv.Itoa(len(set.Hotspots)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "URL", "Scale", "Endpoints", "Hotspots"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output scenes as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <scene-url>",
		Short: "Show the annotations of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := apiClient.FetchDocument(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch project document: %w", err)
			}

			scene, ok := doc.SceneByURL(args[0])
			if !ok {
				return fmt.Errorf("scene %q not found in project document", args[0])
			}
			set, _ := doc.AnnotationsFor(scene.URL)

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
					Scene       project.Scene         `json:"scene"`
					Annotations project.AnnotationSet `json:"annotations"`
				}{scene, set})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scene: %s (%s)\n", scene.Name, scene.URL)
			fmt.Fprintf(out, "Scale: %g\n\n", scene.Scale)

			endpointRows := make([][]string, 0, len(set.Endpoints))
			for _, ep := range set.Endpoints {
				endpointRows = append(endpointRows, []string{
					ep.Name,
					formatVec(ep.Target),
					formatVec(ep.Camera),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Endpoint", "Target", "Camera"},
				endpointRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			hotspotRows := make([][]string, 0, len(set.Hotspots))
			for _, h := range set.Hotspots {
				hotspotRows = append(hotspotRows, []string{
					h.Name,
					formatVec(h.Position),
					refSummary(h.ImageRef),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Hotspot", "Position", "Image"},
				hotspotRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output annotations as JSON")
	return cmd
}

func refSummary(ref string) string {
	switch project.ClassifyRef(ref) {
	case project.RefNone:
		return "-"
	case project.RefServerPath:
		return ref
	case project.RefRemoteURL:
		return ref
	case project.RefInline:
		return "inline data"
	default:
		return "blob:" + ref
	}
}
