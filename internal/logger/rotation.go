package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotatingWriter is an io.Writer over a log file that rotates it away once
// it grows past maxSize bytes or older than maxAge, keeping at most
// maxBackups timestamped backups (optionally gzipped).
type RotatingWriter struct {
	filename   string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int
	compress   bool

	mu         sync.Mutex
	file       *os.File
	size       int64
	lastRotate time.Time
}

// NewRotatingWriter opens (creating if needed) the log file and its parent
// directory. Zero maxSize or maxAge disables that rotation trigger.
func NewRotatingWriter(filename string, maxSize int64, maxAge time.Duration, maxBackups int, compress bool) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %v", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %v", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat log file: %v", err)
	}
	return &RotatingWriter{
		filename:   filename,
		maxSize:    maxSize,
		maxAge:     maxAge,
		maxBackups: maxBackups,
		compress:   compress,
		file:       file,
		size:       stat.Size(),
		lastRotate: time.Now(),
	}, nil
}

// Write implements io.Writer, rotating first when a limit has been hit.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.needsRotation() {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %v", err)
		}
	}
	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Close()
}

func (rw *RotatingWriter) needsRotation() bool {
	if rw.maxSize > 0 && rw.size >= rw.maxSize {
		return true
	}
	return rw.maxAge > 0 && time.Since(rw.lastRotate) >= rw.maxAge
}

// rotate renames the current file to a timestamped backup and starts a new
// one. Compression and backup pruning are best-effort; a failure there must
// not lose log writes.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close current file: %v", err)
	}
	backup := rw.filename + "." + time.Now().Format("2006-01-02-15-04-05")
	if err := os.Rename(rw.filename, backup); err != nil {
		return fmt.Errorf("rename log file: %v", err)
	}

	if rw.compress {
		if err := compressFile(backup); err != nil {
			fmt.Fprintf(os.Stderr, "compress log backup %s: %v\n", backup, err)
		}
	}
	if err := rw.pruneBackups(); err != nil {
		fmt.Fprintf(os.Stderr, "prune log backups: %v\n", err)
	}

	file, err := os.OpenFile(rw.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("create new log file: %v", err)
	}
	rw.file = file
	rw.size = 0
	rw.lastRotate = time.Now()
	return nil
}

// compressFile gzips a backup in place, removing the plain file on success.
func compressFile(filename string) error {
	src, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filename + ".gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		_ = dst.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(filename)
}

// pruneBackups deletes the oldest backups beyond maxBackups.
func (rw *RotatingWriter) pruneBackups() error {
	dir := filepath.Dir(rw.filename)
	base := filepath.Base(rw.filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	if len(backups) <= rw.maxBackups {
		return nil
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.Before(backups[j].modTime)
	})
	for _, b := range backups[:len(backups)-rw.maxBackups] {
		if err := os.Remove(b.path); err != nil {
			fmt.Fprintf(os.Stderr, "remove old log backup %s: %v\n", b.path, err)
		}
	}
	return nil
}

// CreateRotatingWriterFromConfig builds the configured writer: a plain
// output when no rotation block is set, a RotatingWriter over the file:
// output otherwise.
func CreateRotatingWriterFromConfig(config *LogConfig) (io.Writer, error) {
	if config.Rotation == nil {
		return parseOutput(config.Output)
	}

	var maxSize int64
	if config.Rotation.MaxSize != "" {
		size, err := parseSize(config.Rotation.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("parse max size: %v", err)
		}
		maxSize = size
	}
	var maxAge time.Duration
	if config.Rotation.MaxAge != "" {
		age, err := parseDuration(config.Rotation.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("parse max age: %v", err)
		}
		maxAge = age
	}

	filename := strings.TrimPrefix(config.Output, "file:")
	if filename == config.Output {
		filename = "vidmine.log"
	}
	return NewRotatingWriter(filename, maxSize, maxAge, config.Rotation.MaxBackups, config.Rotation.Compress)
}

// CreateLoggerWithRotation builds a Logger whose output honors the config's
// rotation settings. stdout/stderr outputs never rotate.
func CreateLoggerWithRotation(config *LogConfig) (*Logger, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("validate config: %v", err)
	}

	var output io.Writer
	var err error
	if config.Rotation != nil && config.Output != "stdout" && config.Output != "stderr" {
		output, err = CreateRotatingWriterFromConfig(config)
	} else {
		output, err = parseOutput(config.Output)
	}
	if err != nil {
		return nil, err
	}

	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %v", err)
	}
	loggerConfig.Output = output
	return New(loggerConfig), nil
}
