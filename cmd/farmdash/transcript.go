package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	firestorestore "github.com/PabloGalante/farmdash/internal/adapters/storage/firestore"
	"github.com/PabloGalante/farmdash/internal/config"
	"github.com/PabloGalante/farmdash/internal/domain"
)

var transcriptLimit int

var transcriptCmd = &cobra.Command{
	Use:   "transcript <session-id>",
	Short: "Print an archived conversation transcript",
	Long: `Reads a transcript written by the Firestore archive. Transcripts are
read-only; they are never loaded back into a conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Archive.Backend != config.ArchiveFirestore {
			return errors.New("transcripts are only readable from the firestore archive (set archive.backend)")
		}

		ctx := cmd.Context()
		store, err := firestorestore.NewStore(ctx, cfg.Archive.GCPProjectID)
		if err != nil {
			return err
		}
		defer store.Close()

		msgs, err := store.ListMessages(ctx, domain.SessionID(args[0]), transcriptLimit)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("no transcript for session %s", args[0])
		}

		boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		out := cmd.OutOrStdout()
		for _, m := range msgs {
			who := boldGreen("Assistant")
			if m.Sender == domain.SenderUser {
				who = boldCyan("You")
			}
			fmt.Fprintf(out, "%s %s\n", who, faint(m.CreatedAt.Local().Format("2006-01-02 15:04")))
			if m.Content != "" {
				fmt.Fprintf(out, "  %s\n", m.Content)
			}
			for _, a := range m.Attachments {
				fmt.Fprintf(out, "  %s\n", faint(fmt.Sprintf("[%s] %s", a.Kind, a.DisplayName)))
			}
		}
		return nil
	},
}

func init() {
	transcriptCmd.Flags().IntVarP(&transcriptLimit, "limit", "n", 0, "Show only the last n messages (0 = all)")
}
