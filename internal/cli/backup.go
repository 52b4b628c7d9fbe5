package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dukerupert/kidpoints/internal/backup"
)

func (app *Context) backupManager() (*backup.Manager, error) {
	mgr := backup.NewManager(app.Backup, app.Household.KV(), app.Household.Reload, nil, app.Logger.With("component", "backup"))
	if !mgr.Enabled() {
		return nil, errors.New("backups need --backup-s3-bucket, access keys and --backup-passphrase")
	}
	return mgr, nil
}

type BackupRunCmd struct{}

func (c *BackupRunCmd) Run(app *Context) error {
	mgr, err := app.backupManager()
	if err != nil {
		return err
	}
	key, err := mgr.RunNow(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Backup uploaded: %s\n", key)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(app *Context) error {
	mgr, err := app.backupManager()
	if err != nil {
		return err
	}
	objects, err := mgr.List(context.Background())
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Println("No backups found")
		return nil
	}
	for _, o := range objects {
		fmt.Printf("  %s  %s  (%.1f KB)\n", o.LastModified.Format("2006-01-02 15:04"), o.Key, float64(o.Size)/1024)
	}
	return nil
}

type BackupRestoreCmd struct {
	Key string `arg:"" help:"Object key to restore, as shown by backup list."`
}

func (c *BackupRestoreCmd) Run(app *Context) error {
	mgr, err := app.backupManager()
	if err != nil {
		return err
	}
	if err := mgr.Restore(context.Background(), c.Key); err != nil {
		return err
	}
	fmt.Printf("Restored from: %s\n", c.Key)
	return nil
}

type BackupExportCmd struct {
	File string `arg:"" type:"path" help:"Where to write the encrypted backup."`
}

func (c *BackupExportCmd) Run(app *Context) error {
	if app.Backup.Passphrase == "" {
		return errors.New("--backup-passphrase is required")
	}
	f, err := os.OpenFile(c.File, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := backup.Export(f, app.Household.KV(), app.Backup.Passphrase); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("✓ Backup written: %s\n", c.File)
	return nil
}

type BackupImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Encrypted backup to import. Replaces all current data."`
}

func (c *BackupImportCmd) Run(app *Context) error {
	if app.Backup.Passphrase == "" {
		return errors.New("--backup-passphrase is required")
	}
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := backup.Import(f, app.Household.KV(), app.Backup.Passphrase); err != nil {
		return err
	}
	if err := app.Household.Reload(); err != nil {
		return fmt.Errorf("reload after import: %w", err)
	}
	fmt.Printf("Imported: %s\n", c.File)
	return nil
}
