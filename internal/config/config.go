package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"edefter/internal/automation"
	"edefter/internal/logger"
	"edefter/internal/mail"
)

const (
	defaultSubjectTemplate = "E-Defter Dosyaları - {{companyName}} - {{period}}"
	defaultBodyTemplate    = `Sayın {{companyName}},

{{period}} dönemine ait e-defter dosyalarınız ekte gönderilmiştir.

Dosya içeriği:
- Kebir Defteri (XML ve ZIP)
- Yevmiye Defteri (XML ve ZIP)

Saygılarımızla,
E-Defter Yönetim Sistemi`
)

type Config struct {
	// Folders
	SourceFolder       string
	BackupFolder       string
	ReportOutputFolder string

	// Customer roster: an xlsx file, or a Google Sheet
	CustomerExcelPath string
	CustomerSheetURL  string `validate:"omitempty,url"`
	CustomerSheetName string

	// Optional spreadsheet that receives the report tables
	ReportSheetURL string `validate:"omitempty,url"`

	// Local state (processed items)
	StateDBPath string `validate:"required"`

	// SMTP
	SMTPHost          string
	SMTPPort          int `validate:"min=1,max=65535"`
	SMTPSecure        bool
	SMTPInsecure      bool // skip certificate verification for self-signed servers
	SMTPUser          string
	SMTPPassword      string
	EmailFrom         string  `validate:"omitempty,email"`
	MailRatePerSecond float64 `validate:"gt=0"`

	// E-mail templates
	EmailSubjectTemplate string `validate:"required"`
	EmailBodyTemplate    string `validate:"required"`

	// Automation toggles
	AutoEmail            bool
	AutoBackupOnComplete bool
	AutoReport           bool
	WatchDebounce        time.Duration `validate:"gt=0"`
	BackupRetentionDays  int           `validate:"min=0"`

	// Status server (watch mode), empty disables it
	MetricsAddr string `validate:"omitempty,hostname_port"`

	// Logging Configuration
	LogLevel      string `validate:"oneof=trace debug info warn error fatal panic"`
	LogFormat     string `validate:"oneof=json console"`
	LogTimeFormat string
	LogOutput     string
}

// Default returns the configuration used when nothing is set in the environment.
func Default() *Config {
	return &Config{
		CustomerSheetName:    "Müşteriler",
		StateDBPath:          "edefter.db",
		SMTPPort:             587,
		MailRatePerSecond:    1,
		EmailSubjectTemplate: defaultSubjectTemplate,
		EmailBodyTemplate:    defaultBodyTemplate,
		AutoBackupOnComplete: true,
		AutoReport:           true,
		WatchDebounce:        2 * time.Second,
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        time.RFC3339,
		LogOutput:            "stdout",
	}
}

func Load() (*Config, error) {
	d := Default()
	config := &Config{
		SourceFolder:         getEnv("SOURCE_FOLDER", d.SourceFolder),
		BackupFolder:         getEnv("BACKUP_FOLDER", d.BackupFolder),
		ReportOutputFolder:   getEnv("REPORT_OUTPUT_FOLDER", d.ReportOutputFolder),
		CustomerExcelPath:    getEnv("CUSTOMER_EXCEL_PATH", d.CustomerExcelPath),
		CustomerSheetURL:     getEnv("CUSTOMER_SHEET_URL", d.CustomerSheetURL),
		CustomerSheetName:    getEnv("CUSTOMER_SHEET_NAME", d.CustomerSheetName),
		ReportSheetURL:       getEnv("REPORT_SHEET_URL", d.ReportSheetURL),
		StateDBPath:          getEnv("STATE_DB_PATH", d.StateDBPath),
		SMTPHost:             getEnv("SMTP_HOST", d.SMTPHost),
		SMTPPort:             getEnvInt("SMTP_PORT", d.SMTPPort),
		SMTPSecure:           getEnvBool("SMTP_SECURE", d.SMTPSecure),
		SMTPInsecure:         getEnvBool("SMTP_INSECURE", d.SMTPInsecure),
		SMTPUser:             getEnv("SMTP_USER", d.SMTPUser),
		SMTPPassword:         getEnv("SMTP_PASSWORD", d.SMTPPassword),
		EmailFrom:            getEnv("EMAIL_FROM", d.EmailFrom),
		MailRatePerSecond:    getEnvFloat("MAIL_RATE_PER_SECOND", d.MailRatePerSecond),
		EmailSubjectTemplate: getEnv("EMAIL_SUBJECT_TEMPLATE", d.EmailSubjectTemplate),
		EmailBodyTemplate:    getEnv("EMAIL_BODY_TEMPLATE", d.EmailBodyTemplate),
		AutoEmail:            getEnvBool("AUTO_EMAIL", d.AutoEmail),
		AutoBackupOnComplete: getEnvBool("AUTO_BACKUP_ON_COMPLETE", d.AutoBackupOnComplete),
		AutoReport:           getEnvBool("AUTO_REPORT", d.AutoReport),
		WatchDebounce:        getEnvDuration("WATCH_DEBOUNCE", d.WatchDebounce),
		BackupRetentionDays:  getEnvInt("BACKUP_RETENTION_DAYS", d.BackupRetentionDays),
		MetricsAddr:          getEnv("METRICS_ADDR", d.MetricsAddr),
		LogLevel:             getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:            getEnv("LOG_FORMAT", d.LogFormat),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", d.LogTimeFormat),
		LogOutput:            getEnv("LOG_OUTPUT", d.LogOutput),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	return validator.New().Struct(c)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetMailConfig returns the SMTP settings. Missing credentials are reported by the
// mail package when a message is actually sent.
func (c *Config) GetMailConfig() mail.Config {
	return mail.Config{
		Host:          c.SMTPHost,
		Port:          c.SMTPPort,
		Secure:        c.SMTPSecure,
		Insecure:      c.SMTPInsecure,
		User:          c.SMTPUser,
		Password:      c.SMTPPassword,
		From:          c.EmailFrom,
		RatePerSecond: c.MailRatePerSecond,
	}
}

// GetAutomationSettings returns the toggles and templates used by the trigger.
func (c *Config) GetAutomationSettings() automation.Settings {
	return automation.Settings{
		SourceFolder:    c.SourceFolder,
		BackupFolder:    c.BackupFolder,
		AutoBackup:      c.AutoBackupOnComplete,
		AutoEmail:       c.AutoEmail,
		AutoReport:      c.AutoReport && c.ReportOutputFolder != "",
		SubjectTemplate: c.EmailSubjectTemplate,
		BodyTemplate:    c.EmailBodyTemplate,
		Debounce:        c.WatchDebounce,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
