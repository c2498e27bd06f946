// Package backup copies and archives e-defter period folders.
package backup

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"edefter/internal/logger"
)

// ErrSourceNotFound is returned when the folder to copy or archive is missing.
var ErrSourceNotFound = errors.New("kaynak klasör bulunamadı")

// Service performs folder copies and zip archives on the local disk.
type Service struct {
	log zerolog.Logger
}

// NewService creates a Service logging under the backup component.
func NewService() *Service {
	return &Service{log: logger.WithComponent("backup")}
}

// CopyFolder copies src recursively into dst, creating dst as needed.
// Existing files in dst are overwritten.
func (s *Service) CopyFolder(src, dst string) error {
	const op = "CopyFolder"

	if err := requireDir(src); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
	if err != nil {
		return fmt.Errorf("%s: %s -> %s: %w", op, src, dst, err)
	}

	s.log.Info().Str("source", src).Str("destination", dst).Msg("Backup completed")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// ZipFolder writes a zip of src to out. Entries are stored under the folder's
// base name. It returns out.
func (s *Service) ZipFolder(src, out string) (string, error) {
	const op = "ZipFolder"

	if err := requireDir(src); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var files []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := writeZip(out, files, func(path string) (string, error) {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return "", err
		}
		return filepath.ToSlash(filepath.Join(filepath.Base(src), rel)), nil
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("source", src).Str("zip", out).Msg("ZIP created")
	return out, nil
}

func writeZip(out string, files []string, name func(string) (string, error)) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, path := range files {
		entry, err := name(path)
		if err == nil {
			err = addFile(zw, path, entry)
		}
		if err != nil {
			zw.Close()
			f.Close()
			os.Remove(out)
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addFile(zw *zip.Writer, path, entry string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entry
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// Size returns the total size in bytes of the regular files under path.
// A missing path has size 0.
func Size(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}

// FormatSize renders bytes as B, KB, MB or GB with two decimals.
func FormatSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

// CleanOld deletes files under root last modified more than keepDays before
// now, then removes directories left empty. It returns the number of files
// deleted. root itself is never removed.
func (s *Service) CleanOld(root string, keepDays int, now time.Time) (int, error) {
	const op = "CleanOld"

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	cutoff := now.Add(-time.Duration(keepDays) * 24 * time.Hour)
	deleted, err := cleanDir(root, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("folder", root).Int("deleted", deleted).Int("keep_days", keepDays).Msg("Old backups cleaned")
	return deleted, nil
}

func cleanDir(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			n, err := cleanDir(path, cutoff)
			deleted += n
			if err != nil {
				return deleted, err
			}
			if remaining, err := os.ReadDir(path); err == nil && len(remaining) == 0 {
				if err := os.Remove(path); err != nil {
					return deleted, err
				}
			}
			continue
		}

		info, err := e.Info()
		if err != nil {
			return deleted, err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
