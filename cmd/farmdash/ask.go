package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
)

var (
	askLocale string
	askAttach string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Send one question to the assistant and print the reply",
	Example: `  farmdash ask "When should I transplant koshihikari seedlings?"
  farmdash ask --attach soil-report.pdf "Is this soil good for rice?"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askLocale, "locale", "l", "", "Conversation locale (en, ja)")
	askCmd.Flags().StringVarP(&askAttach, "attach", "a", "", "File to attach (only its name is sent)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	locale := resolveLocale(askLocale)

	session := conversation.NewSession(domain.SessionID(uuid.NewString()), locale, buildGateway(cfg, locale))
	defer session.Close()

	if askAttach != "" {
		a, err := conversation.DescribeFile(askAttach)
		if err != nil {
			return err
		}
		session.Stager().Stage(a)
	}

	res, err := session.Send(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	last, _ := session.Store().State().Last()
	out := cmd.OutOrStdout()

	if !res.Succeeded() {
		logger.Warn("assistant unavailable",
			zap.String("kind", string(domain.KindOf(res.Err))),
			zap.Error(res.Err))
		fmt.Fprintf(out, "%s %s\n", boldGreen("Assistant:"), yellow(last.Content))
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", boldGreen("Assistant:"), last.Content)
	fmt.Fprintln(out, faint(last.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	return nil
}
