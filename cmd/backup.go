package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"edefter/internal/backup"
	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/pkg/models"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage period backups",
}

var backupPeriodCmd = &cobra.Command{
	Use:   "period [tax-no] [YYYYMM]",
	Short: "Copy one period folder to BACKUP_FOLDER, optionally as a zip",
	Example: `  edefter backup period 1234567890 202506
  edefter backup period 1234567890 202506 --zip`,
	Args: cobra.ExactArgs(2),
	RunE: runBackupPeriod,
}

var backupCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete backup files older than the retention period",
	Long: `Remove files under BACKUP_FOLDER last modified more than --days days ago
(default BACKUP_RETENTION_DAYS) and the folders left empty. A retention of
0 keeps everything.`,
	Example: `  edefter backup clean --days 365`,
	RunE:    runBackupClean,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupPeriodCmd, backupCleanCmd)

	backupPeriodCmd.Flags().Bool("zip", false, "Write a zip archive instead of a folder copy")
	backupCleanCmd.Flags().Int("days", 0, "Retention in days (default: BACKUP_RETENTION_DAYS)")
}

func runBackupPeriod(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("backup")

	source, err := sourceFolder(cmd)
	if err != nil {
		return err
	}
	if appConfig.BackupFolder == "" {
		return fmt.Errorf("BACKUP_FOLDER environment variable is required")
	}
	taxNo := args[0]
	period, err := models.ParsePeriod(args[1])
	if err != nil {
		return err
	}
	asZip, _ := cmd.Flags().GetBool("zip")

	src, err := ledger.FindPeriodFolder(source, taxNo, period)
	if err != nil {
		return err
	}
	dst := filepath.Join(appConfig.BackupFolder, taxNo, period.Code())

	svc := backup.NewService()
	if asZip {
		dst, err = svc.ZipFolder(src, dst+".zip")
	} else {
		err = svc.CopyFolder(src, dst)
	}
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	size, err := backup.Size(dst)
	if err != nil {
		log.Warn().Err(err).Str("path", dst).Msg("Failed to measure backup size")
	}
	log.Info().Str("source", src).Str("target", dst).Int64("bytes", size).Msg("Period backed up")
	fmt.Fprintf(cmd.OutOrStdout(), "Yedeklendi: %s (%s)\n", dst, backup.FormatSize(size))
	return nil
}

func runBackupClean(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("backup")

	days, _ := cmd.Flags().GetInt("days")
	if days == 0 {
		days = appConfig.BackupRetentionDays
	}
	if appConfig.BackupFolder == "" {
		return fmt.Errorf("BACKUP_FOLDER environment variable is required")
	}
	if days <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Saklama süresi tanımlı değil, hiçbir dosya silinmedi.")
		return nil
	}

	removed, err := backup.NewService().CleanOld(appConfig.BackupFolder, days, time.Now())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	log.Info().Int("removed", removed).Int("keep_days", days).Msg("Old backups removed")
	fmt.Fprintf(cmd.OutOrStdout(), "%d dosya silindi\n", removed)
	return nil
}
