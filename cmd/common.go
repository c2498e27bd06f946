package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"edefter/internal/config"
	"edefter/internal/logger"
	"edefter/internal/roster"
	"edefter/internal/sheets"
	"edefter/pkg/models"
)

// loadRoster reads the customer list from the configured xlsx file, or else
// from the configured Google Sheet. With neither configured the roster is
// empty and scans fall back to folder names.
func loadRoster(ctx context.Context, cfg *config.Config) (*models.Roster, error) {
	log := logger.WithComponent("roster")
	loader := roster.NewLoader()

	switch {
	case cfg.CustomerExcelPath != "":
		return loader.LoadExcel(cfg.CustomerExcelPath)
	case cfg.CustomerSheetURL != "":
		svc, err := sheets.NewSheetsService(ctx, cfg.CustomerSheetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		return loader.LoadSheet(ctx, svc, cfg.CustomerSheetName)
	default:
		log.Warn().Msg("No customer list configured; set CUSTOMER_EXCEL_PATH or CUSTOMER_SHEET_URL")
		return models.NewRoster(nil, ""), nil
	}
}

// writeJSON pretty-prints v to outputPath, or to w when outputPath is empty.
func writeJSON(w io.Writer, v interface{}, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if outputPath == "" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		log.Error().Err(err).Str("output", outputPath).Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("output", outputPath).Msg("Output written")
	return nil
}
