package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
	"github.com/PabloGalante/farmdash/internal/tui"
)

var chatLocale string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the farming assistant in the terminal",
	Long: `Opens an interactive conversation against the configured assistant
endpoint. Enter sends, ctrl+o attaches a file, esc quits. Logs go to a file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		locale := resolveLocale(chatLocale)
		archive, closeArchive, err := buildArchive(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeArchive() }()

		session := conversation.NewSession(domain.SessionID(uuid.NewString()), locale, buildGateway(cfg, locale))
		session.ArchiveTo(archive)
		defer session.Close()

		logger.Info("chat session started",
			zap.String("session_id", string(session.ID)),
			zap.String("endpoint", cfg.Assistant.Endpoint))
		return tui.Run(ctx, session)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatLocale, "locale", "l", "", "Conversation locale (en, ja)")
}

// resolveLocale prefers the flag, then the config.
func resolveLocale(flag string) string {
	if flag != "" {
		return i18n.Normalize(flag)
	}
	if cfg.Locale != "" {
		return i18n.Normalize(cfg.Locale)
	}
	return i18n.DefaultLocale
}
