package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/daemon"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/ipc"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var provider string
	var language string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add an audio file to the transcription queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var id int64
				var source string

				if client != nil {
					resp, err := client.AddFile(ipc.AddFileRequest{
						Path:     args[0],
						Title:    title,
						Provider: provider,
						Language: language,
					})
					if err != nil {
						return err
					}
					id = resp.Item.ID
					source = resp.Item.SourcePath
				} else {
					cfg, err := ctx.ensureConfig()
					if err != nil {
						return err
					}
					item, err := daemon.EnqueueFile(cmd.Context(), store, cfg, args[0], title, provider, language)
					if err != nil {
						return err
					}
					id = item.ID
					source = item.SourcePath
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Queued audio file as item #%d (%s)\n", id, filepath.Base(source))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title (defaults to the filename)")
	cmd.Flags().StringVar(&provider, "provider", "", "Transcription provider override")
	cmd.Flags().StringVar(&language, "language", "", "ISO 639-1 language hint")
	return cmd
}
