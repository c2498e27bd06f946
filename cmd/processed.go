package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"edefter/internal/logger"
	"edefter/internal/store"
)

var processedCmd = &cobra.Command{
	Use:   "processed",
	Short: "Inspect or reset the record of automated periods",
	Long: `Each period is backed up and e-mailed at most once. The record of handled
periods lives in STATE_DB_PATH; clearing it lets watch mode handle every
complete period again.`,
}

var processedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List handled periods in the order they were recorded",
	RunE:  runProcessedList,
}

var processedClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every handled period",
	RunE:  runProcessedClear,
}

func init() {
	rootCmd.AddCommand(processedCmd)
	processedCmd.AddCommand(processedListCmd, processedClearCmd)

	processedListCmd.Flags().Bool("json", false, "Print as JSON")
	processedClearCmd.Flags().Bool("yes", false, "Confirm clearing the record")
}

func runProcessedList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("processed")
	asJSON, _ := cmd.Flags().GetBool("json")

	db, err := store.Open(appConfig.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	items, err := db.ProcessedItems()
	if err != nil {
		return fmt.Errorf("failed to read processed items: %w", err)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), items, "", log)
	}

	w := cmd.OutOrStdout()
	for _, item := range items {
		actions := make([]string, 0, len(item.Actions))
		for _, a := range item.Actions {
			actions = append(actions, string(a))
		}
		fmt.Fprintf(w, "%s  %-12s %s  %s\n",
			item.ProcessedAt.Local().Format("02.01.2006 15:04"), item.TaxNo, item.Period, strings.Join(actions, ","))
	}
	fmt.Fprintf(w, "%d kayıt\n", len(items))
	return nil
}

func runProcessedClear(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("processed")

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("refusing to clear without --yes")
	}

	db, err := store.Open(appConfig.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	n, err := db.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear processed items: %w", err)
	}

	log.Info().Int("removed", n).Msg("Processed items cleared")
	fmt.Fprintf(cmd.OutOrStdout(), "%d kayıt silindi\n", n)
	return nil
}
