package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/ftracker/internal/ingest/sensor"
	"github.com/meltforce/ftracker/internal/journal"
	"github.com/meltforce/ftracker/internal/models"
)

// packetExts are the file extensions picked up when walking a directory.
var packetExts = map[string]bool{".txt": true, ".pkt": true, ".log": true}

// Stats tracks processing progress.
type Stats struct {
	FilesTotal     int
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	PacketsTotal     int
	ReportsComputed  int
	PacketsRejected  int
	ReportsJournaled int64
	ReportsUploaded  int64
}

// Runner computes packet files, prints one summary line per accepted
// packet, journals the reports locally and optionally uploads the packets
// to a server.
type Runner struct {
	client  *Client
	journal *journal.Journal
	out     io.Writer
	force   bool
	log     *slog.Logger
	stats   Stats
}

// New creates a new Runner. client may be nil to skip uploading.
func New(client *Client, j *journal.Journal, out io.Writer, force bool, log *slog.Logger) *Runner {
	return &Runner{
		client:  client,
		journal: j,
		out:     out,
		force:   force,
		log:     log,
	}
}

// Stats returns the counters accumulated so far.
func (u *Runner) Stats() *Stats {
	return &u.stats
}

// Run processes a single packet file or every packet file below a directory.
func (u *Runner) Run(ctx context.Context, path string) (*Stats, error) {
	files, err := CollectFiles(path)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("file failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}

	return &u.stats, nil
}

// RunPackets processes packets that did not come from a file. Packets
// without an ID get a random one.
func (u *Runner) RunPackets(ctx context.Context, packets []models.Packet, source string) (*Stats, error) {
	if err := u.process(ctx, packets, source, ""); err != nil {
		return &u.stats, err
	}
	return &u.stats, nil
}

func (u *Runner) processFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := journal.HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if !u.force {
		done, err := u.journal.IsProcessed(abs, info.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			u.stats.FilesSkipped++
			u.log.Debug("unchanged, skipping", "file", path)
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	packets, err := sensor.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	// IDs are derived from the file content so a rerun after a failed
	// upload journals and uploads the same reports, not new copies.
	if err := u.process(ctx, packets, filepath.Base(path), abs+":"+hash); err != nil {
		return err
	}

	if err := u.journal.MarkProcessed(abs, info.Size(), hash); err != nil {
		u.log.Warn("failed to mark processed", "file", path, "error", err)
	}
	u.stats.FilesProcessed++
	return nil
}

// process prints, journals and uploads one batch of packets. When key is
// set, packets without an ID get one derived from key and their position.
func (u *Runner) process(ctx context.Context, packets []models.Packet, source, key string) error {
	u.stats.PacketsTotal += len(packets)

	if key != "" {
		packets = append([]models.Packet(nil), packets...)
		for i := range packets {
			if packets[i].ID == nil {
				id := models.PacketID(key, i)
				packets[i].ID = &id
			}
		}
	}

	var rows []models.ReportRow
	var accepted []models.Packet
	for i, o := range sensor.Evaluate(packets) {
		if o.Err != nil {
			u.stats.PacketsRejected++
			u.log.Warn("packet rejected", "source", source, "index", i+1, "code", o.Packet.Code, "error", o.Err)
			continue
		}
		fmt.Fprintln(u.out, o.Message.String())
		rows = append(rows, models.NewReportRow(o.Packet, o.Message, 0, source))
		accepted = append(accepted, o.Packet)
	}
	u.stats.ReportsComputed += len(rows)

	if len(rows) == 0 {
		return nil
	}

	n, err := u.journal.InsertReports(ctx, rows)
	if err != nil {
		return fmt.Errorf("journaling reports: %w", err)
	}
	u.stats.ReportsJournaled += n

	if u.client == nil {
		return nil
	}
	result, err := u.client.SendPackets(ctx, accepted, source)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", source, err)
	}
	u.stats.ReportsUploaded += result.ReportsInserted
	if result.PacketsRejected > 0 {
		u.log.Warn("server rejected packets", "source", source, "rejections", result.Rejections)
	}
	return nil
}

// CollectFiles returns path itself when it is a file, or every packet file
// below it in lexical order when it is a directory.
func CollectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if packetExts[strings.ToLower(filepath.Ext(p))] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	return files, nil
}
