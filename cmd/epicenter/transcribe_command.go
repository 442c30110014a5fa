package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/daemon"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/export"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/preparation"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/probing"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcriber"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/workflow"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var title string
	var provider string
	var language string

	cmd := &cobra.Command{
		Use:   "transcribe <path>",
		Short: "Transcribe a single audio file and wait for the result",
		Long: "Transcribe enqueues one audio file and runs the pipeline in this\n" +
			"process until the item completes. Stop the daemon first; one-shot\n" +
			"runs and the daemon must not compete for the same queue.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if client, err := ctx.dialClient(); err == nil {
				client.Close()
				return errors.New("daemon is running; use `epicenter add` instead, or stop the daemon first")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := daemon.EnqueueFile(cmd.Context(), store, cfg, args[0], title, provider, language)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcribing %s (item #%d)...\n", item.Title, item.ID)

			logger := logging.NewNop()
			manager := workflow.NewManager(cfg, store, logger)
			transcribeStage, err := transcriber.NewTranscriber(cfg, store, logger)
			if err != nil {
				return err
			}
			prepareStage := preparation.NewPreparer(cfg, store, logger, transcribeStage.Provider())
			prepareStage.WithLimiterResolver(func(name string) (preparation.UploadLimiter, error) {
				return transcriber.NamedProvider(cfg, name)
			})
			manager.ConfigureStages(workflow.StageSet{
				Prober:      probing.NewProber(cfg, store, logger),
				Preparer:    prepareStage,
				Transcriber: transcribeStage,
				Exporter:    export.NewExporter(cfg, store, logger),
			})

			if err := manager.Start(cmd.Context()); err != nil {
				return err
			}
			defer manager.Stop()

			final, err := waitForTerminal(cmd.Context(), store, item.ID)
			if err != nil {
				return err
			}

			switch final.Status {
			case queue.StatusCompleted:
				fmt.Fprintf(out, "Transcript written to %s\n", final.TranscriptFile)
				return nil
			case queue.StatusReview:
				return fmt.Errorf("item parked for review: %s", final.ReviewReason)
			default:
				return fmt.Errorf("transcription failed: %s", final.ErrorMessage)
			}
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title (defaults to the filename)")
	cmd.Flags().StringVar(&provider, "provider", "", "Transcription provider override")
	cmd.Flags().StringVar(&language, "language", "", "ISO 639-1 language hint")
	return cmd
}

func waitForTerminal(ctx context.Context, store *queue.Store, id int64) (*queue.Item, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		item, err := store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil && item.IsTerminal() {
			return item, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
