package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"edefter/internal/compliance"
	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/internal/mail"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "E-mail utilities",
}

var mailTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the SMTP settings",
	Long: `Connect and authenticate to SMTP_HOST without sending anything. With --to a
short test message is sent as well.`,
	Example: `  edefter mail test
  edefter mail test --to muhasebe@example.com`,
	RunE: runMailTest,
}

var mailRemindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind customers of overdue and imminent deadlines",
	Long: `Scan the source folder, then e-mail every active customer whose period is
not complete and whose deadline has passed (late notice) or is at most 7
days away (reminder). Customers without an e-mail address are skipped.`,
	Example: `  # Show what would be sent
  edefter mail remind --dry-run

  edefter mail remind`,
	RunE: runMailRemind,
}

func init() {
	rootCmd.AddCommand(mailCmd)
	mailCmd.AddCommand(mailTestCmd, mailRemindCmd)

	mailTestCmd.Flags().String("to", "", "Send a test message to this address")
	mailRemindCmd.Flags().Bool("dry-run", false, "List the reminders without sending")
}

func runMailTest(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("mail")
	to, _ := cmd.Flags().GetString("to")

	ctx, cancel := signalContext()
	defer cancel()

	sender := mail.NewSender(appConfig.GetMailConfig())
	if err := sender.TestConnection(ctx); err != nil {
		return fmt.Errorf("SMTP connection failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "SMTP bağlantısı başarılı.")

	if to == "" {
		return nil
	}
	msg := mail.Message{
		To:      to,
		Subject: "E-Defter Test E-postası",
		Body:    "Bu bir test e-postasıdır.\n\nE-posta ayarlarınız doğru yapılandırılmış.",
	}
	if err := sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send test message: %w", err)
	}

	log.Info().Str("to", to).Msg("Test message sent")
	fmt.Fprintf(cmd.OutOrStdout(), "Test e-postası gönderildi: %s\n", to)
	return nil
}

func runMailRemind(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("mail-remind")

	source, err := sourceFolder(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, cancel := signalContext()
	defer cancel()

	customers, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	scan, err := ledger.NewChecker(nil).ScanAll(ctx, source, customers)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	deadlines := compliance.NewAggregator(nil).UpcomingDeadlines(customers.Customers())
	compliance.MarkCompleted(deadlines, scan)
	msgs, skipped := reminderMessages(compliance.DueReminders(deadlines))

	log.Info().
		Int("messages", len(msgs)).
		Int("skipped_no_email", skipped).
		Bool("dry_run", dryRun).
		Msg("Reminders prepared")

	w := cmd.OutOrStdout()
	if dryRun {
		for _, m := range msgs {
			fmt.Fprintf(w, "%-30s %s\n", m.To, m.Subject)
		}
		fmt.Fprintf(w, "%d e-posta gönderilecek, %d müşterinin e-posta adresi yok\n", len(msgs), skipped)
		return nil
	}

	result := mail.NewSender(appConfig.GetMailConfig()).SendBulk(ctx, msgs)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "HATA: %s\n", e)
	}
	fmt.Fprintf(w, "%d gönderildi, %d başarısız, %d atlandı\n", result.Success, result.Failed, skipped)
	if result.Failed > 0 {
		return fmt.Errorf("%d reminder(s) could not be sent", result.Failed)
	}
	return nil
}

// reminderMessages renders one message per deadline: the late template when
// overdue, the reminder template otherwise. Deadlines of customers without an
// e-mail address are counted in skipped.
func reminderMessages(deadlines []compliance.UpcomingDeadline) (msgs []mail.Message, skipped int) {
	for _, d := range deadlines {
		if d.Customer.Email == "" {
			skipped++
			continue
		}
		tpl := mail.ReminderTemplate
		if d.IsOverdue {
			tpl = mail.LateTemplate
		}
		subject, body := tpl.Render(mail.TemplateData{
			CompanyName: d.Customer.CompanyName,
			TaxNo:       d.Customer.Identifier(),
			Period:      d.PeriodDisplay,
			PeriodCode:  d.Period.Code(),
		})
		msgs = append(msgs, mail.Message{To: d.Customer.Email, Subject: subject, Body: body})
	}
	return msgs, skipped
}
