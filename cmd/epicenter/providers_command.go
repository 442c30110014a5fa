package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
)

type providerSummary struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Active     bool   `json:"active"`
	Detail     string `json:"detail,omitempty"`
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List transcription providers and their configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			summaries := summarizeProviders(cfg)
			if ctx.jsonMode() {
				return writeJSON(cmd, summaries)
			}

			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				active := ""
				if s.Active {
					active = "active"
				}
				rows = append(rows, []string{s.Name, yesNo(s.Configured), active, s.Detail})
			}
			table := renderTable([]string{"Provider", "Configured", "", "Detail"}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func summarizeProviders(cfg *config.Config) []providerSummary {
	active := strings.TrimSpace(cfg.Transcription.Provider)
	summaries := make([]providerSummary, 0, len(config.KnownProviders))
	for _, name := range config.KnownProviders {
		s := providerSummary{Name: name, Active: name == active}
		switch name {
		case "openai":
			s.Configured = cfg.OpenAI.APIKey != ""
			if !s.Configured {
				s.Detail = "set openai.api_key"
			}
		case "deepgram":
			s.Configured = cfg.Deepgram.APIKey != ""
			if !s.Configured {
				s.Detail = "set deepgram.api_key"
			}
		case "cloudflare":
			s.Configured = cfg.Cloudflare.AccountID != "" && cfg.Cloudflare.APIToken != ""
			if !s.Configured {
				s.Detail = "set cloudflare.account_id and cloudflare.api_token"
			}
		case "whisperx":
			s.Configured = true
			s.Detail = "runs locally via uvx"
		}
		summaries = append(summaries, s)
	}
	return summaries
}
