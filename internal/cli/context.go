// Package cli holds the kidpoints subcommands.
package cli

import (
	"log/slog"
	"time"

	"github.com/dukerupert/kidpoints/internal/backup"
	"github.com/dukerupert/kidpoints/internal/household"
)

// Context is handed to every command's Run method.
type Context struct {
	Logger    *slog.Logger
	Household *household.Household
	Backup    backup.Config
}

// BackupFlags configure off-site backups. They are global so serve and the
// backup commands share them.
type BackupFlags struct {
	S3Endpoint    string        `name:"s3-endpoint" help:"S3-compatible endpoint URL, empty for AWS." env:"KIDPOINTS_BACKUP_S3_ENDPOINT"`
	S3Bucket      string        `name:"s3-bucket" help:"Bucket for backups." env:"KIDPOINTS_BACKUP_S3_BUCKET"`
	S3Region      string        `name:"s3-region" help:"Bucket region." default:"auto" env:"KIDPOINTS_BACKUP_S3_REGION"`
	S3AccessKey   string        `name:"s3-access-key" help:"Access key ID." env:"KIDPOINTS_BACKUP_S3_ACCESS_KEY"`
	S3SecretKey   string        `name:"s3-secret-key" help:"Secret access key." env:"KIDPOINTS_BACKUP_S3_SECRET_KEY"`
	Prefix        string        `help:"Object key prefix." default:"kidpoints" env:"KIDPOINTS_BACKUP_PREFIX"`
	Passphrase    string        `help:"Passphrase backups are encrypted with." env:"KIDPOINTS_BACKUP_PASSPHRASE"`
	RetentionDays int           `name:"retention-days" help:"Delete backups older than this." default:"30" env:"KIDPOINTS_BACKUP_RETENTION_DAYS"`
	Interval      time.Duration `help:"Time between scheduled backups, 0 to disable." default:"24h" env:"KIDPOINTS_BACKUP_INTERVAL"`
}

func (f BackupFlags) Config() backup.Config {
	return backup.Config{
		S3: backup.S3Config{
			Endpoint:  f.S3Endpoint,
			Bucket:    f.S3Bucket,
			Region:    f.S3Region,
			AccessKey: f.S3AccessKey,
			SecretKey: f.S3SecretKey,
		},
		Prefix:        f.Prefix,
		Passphrase:    f.Passphrase,
		RetentionDays: f.RetentionDays,
		Interval:      f.Interval,
	}
}
