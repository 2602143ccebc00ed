package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/export"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/gmailclient"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/notify"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/storage"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Send interview invitations to the candidates of a saved ranking",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return invite(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inviteCmd)

	inviteCmd.Flags().StringP("snapshot", "s", "", "ranking saved by the rank command (default is output.snapshot from the config)")
	inviteCmd.Flags().String("date", "", "interview date, e.g. 2024-05-02")
	inviteCmd.Flags().String("time", "", "interview time, e.g. 10:00")
	inviteCmd.Flags().Int("top", 0, "invite only the best N candidates (0 invites everyone)")
	inviteCmd.Flags().String("transport", "", "smtp, gmail or amqp (default is invite.transport from the config)")
	inviteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	inviteCmd.MarkFlagRequired("date")
	inviteCmd.MarkFlagRequired("time")

	viper.BindPFlag("invite.transport", inviteCmd.Flags().Lookup("transport"))
}

func invite(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		path = cfg.Output.Snapshot
	}
	if path == "" {
		return errors.New("a snapshot file is required, pass --snapshot or set output.snapshot")
	}

	snap, err := export.ReadSnapshot(path)
	if err != nil {
		return err
	}

	recipients := notify.RecipientsFrom(snap)
	if top, _ := cmd.Flags().GetInt("top"); top > 0 && top < len(recipients) {
		recipients = recipients[:top]
	}
	if len(recipients) == 0 {
		log.Info("exiting", zap.String("reason", "no candidates in snapshot"))
		return nil
	}

	date, _ := cmd.Flags().GetString("date")
	at, _ := cmd.Flags().GetString("time")

	log.Info("preparing invitations",
		zap.String("batch_id", snap.BatchID),
		zap.Int("recipients", len(recipients)),
		zap.String("transport", cfg.Invite.Transport),
	)

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		names := make([]string, 0, len(recipients))
		for _, r := range recipients {
			names = append(names, r.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Invitations for %s at %s: %s\n", date, at, strings.Join(names, ", "))

		prompt := promptui.Select{
			Label: "Send invitations?",
			Items: []string{PromptYes, PromptNo},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			return err
		}
		if answer != PromptYes {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return nil
		}
	}

	transport, closeTransport, err := newTransport(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTransport()

	dispatcher := notify.NewDispatcher(transport, notify.Template{
		Subject: cfg.Invite.Subject,
		Body:    cfg.Invite.Body,
	}, log)

	summary := dispatcher.Invite(ctx, recipients, date, at)

	log.Info("invitations done", zap.Int("sent", summary.Sent), zap.Int("failed", len(summary.Failed)))
	if len(summary.Failed) > 0 {
		log.Warn("some invitations were not sent", zap.Strings("names", summary.FailedNames()))
	}
	return nil
}

func newTransport(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Transport, func(), error) {
	noop := func() {}

	switch cfg.Invite.Transport {
	case "gmail":
		srv, err := gmailclient.NewService(ctx, gmailclient.Options{
			CredentialsFile: cfg.Gmail.CredentialsFile,
			TokenFile:       cfg.Gmail.TokenFile,
			Scopes:          []string{gmail.GmailReadonlyScope, gmail.GmailSendScope},
			Prompt:          gmailclient.StdinPrompt(os.Stdout, os.Stdin),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to gmail: %w", err)
		}
		return notify.NewGmailTransport(srv, cfg.Invite.SMTP.Username), noop, nil
	case "amqp":
		mq, err := storage.NewRabbitMQ(cfg.Invite.AMQP)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := mq.Close(); err != nil {
				log.Warn("closing amqp connection", zap.Error(err))
			}
		}
		return notify.NewQueueTransport(mq), closeFn, nil
	default:
		if cfg.Invite.SMTP.Username == "" {
			return nil, noop, errors.New("invite.smtp.username is required for the smtp transport")
		}
		password, err := cfg.SMTPPassword()
		if err != nil {
			return nil, noop, err
		}
		return notify.NewSMTPTransport(cfg.Invite.SMTP.Host, cfg.Invite.SMTP.Port, cfg.Invite.SMTP.Username, password), noop, nil
	}
}
