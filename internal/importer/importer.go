// Package importer turns spreadsheet files into history records.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/record"
)

// Importer resolves, reads and decodes spreadsheet files.
type Importer struct {
	// Dir is the base directory relative names are resolved against.
	Dir string
	// Sheet is the sheet to decode; empty means the first sheet.
	Sheet string
	// KeepRows stores decoded rows in the record. When false only the
	// source path is kept and rows are re-decoded on demand.
	KeepRows bool
	// OnFile is called before each file of an Import batch.
	OnFile func(name string)

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// New returns an Importer that keeps rows and uses random UUID ids.
func New(dir, sheet string) *Importer {
	return &Importer{
		Dir:      dir,
		Sheet:    sheet,
		KeepRows: true,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Resolve maps a file name to a path. Absolute names are used as is.
func (im *Importer) Resolve(name string) string {
	if filepath.IsAbs(name) || im.Dir == "" {
		return name
	}
	return filepath.Join(im.Dir, name)
}

// ReadFile fetches and decodes one named file.
func (im *Importer) ReadFile(ctx context.Context, name string) (*xlsx.Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := im.Resolve(name)
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	recs, err := xlsx.DecodeBytes(data, im.Sheet)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", name, err)
	}

	im.logger().Debug("decoded spreadsheet", "file", path, "sheet", recs.Sheet,
		"rows", len(recs.Rows), "elapsed", time.Since(start))
	return recs, nil
}

// ReadAll decodes every name in order. The first failure aborts the batch.
func (im *Importer) ReadAll(ctx context.Context, names []string) (map[string]*xlsx.Records, error) {
	results := make(map[string]*xlsx.Records, len(names))
	for _, name := range names {
		recs, err := im.ReadFile(ctx, name)
		if err != nil {
			return nil, err
		}
		results[name] = recs
	}
	return results, nil
}

// Load decodes a named file into a new history record.
func (im *Importer) Load(ctx context.Context, name string) (history.FileRecord, error) {
	recs, err := im.ReadFile(ctx, name)
	if err != nil {
		return history.FileRecord{}, err
	}

	source := im.Resolve(name)
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	rec := im.newRecord(filepath.Base(name), recs)
	rec.Source = source
	if !im.KeepRows {
		rec.Rows = nil
	}
	return rec, nil
}

// FromBytes decodes uploaded content into a new history record. Rows are
// always kept because there is no source file to re-read.
func (im *Importer) FromBytes(name string, data []byte) (history.FileRecord, error) {
	recs, err := xlsx.DecodeBytes(data, im.Sheet)
	if err != nil {
		return history.FileRecord{}, fmt.Errorf("could not decode %s: %w", name, err)
	}
	return im.newRecord(filepath.Base(name), recs), nil
}

// Import loads each name and adds it to the store before moving on to the
// next. It stops at the first failure and returns what was imported so far.
// See Add for what happens when the store cannot persist a record.
func (im *Importer) Import(ctx context.Context, store *history.Store, names ...string) ([]history.FileRecord, error) {
	var imported []history.FileRecord
	for _, name := range names {
		if im.OnFile != nil {
			im.OnFile(name)
		}

		rec, err := im.Load(ctx, name)
		if err != nil {
			return imported, err
		}
		if err := im.Add(store, rec); err != nil {
			return imported, err
		}
		im.logger().Info("imported", "file", rec.Name, "id", rec.ID, "rows", len(rec.Rows))
		imported = append(imported, rec)
	}
	return imported, nil
}

// Rows returns the columns and rows of rec, re-decoding from its source when
// it was stored by reference.
func (im *Importer) Rows(rec history.FileRecord) ([]string, []record.Row, error) {
	if !rec.ByReference() {
		return rec.Columns, rec.Rows, nil
	}

	recs, err := xlsx.DecodeFile(rec.Source, rec.Sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("could not reload %s: %w", rec.Name, err)
	}
	return recs.Columns, recs.Rows, nil
}

func (im *Importer) newRecord(name string, recs *xlsx.Records) history.FileRecord {
	now := time.Now
	if im.Now != nil {
		now = im.Now
	}
	newID := uuid.NewString
	if im.NewID != nil {
		newID = im.NewID
	}

	return history.FileRecord{
		ID:         newID(),
		Name:       name,
		Sheet:      recs.Sheet,
		Columns:    recs.Columns,
		Rows:       recs.Rows,
		ImportedAt: now().UTC(),
	}
}

// Add adds rec to the store. When the history cannot be persisted, rec is
// taken back out and the previous selection restored before the error is
// returned, so a long-running front-end never lists a file that was not
// saved. Saving the shorter list can fail too; that is only logged.
func (im *Importer) Add(store *history.Store, rec history.FileRecord) error {
	prev, hadSelection := store.Selected()
	err := store.AddFile(rec)
	if err == nil {
		return nil
	}

	if rerr := store.RemoveFile(rec.ID); rerr != nil {
		im.logger().Warn("could not persist history after failed import", "file", rec.Name, "error", rerr)
	}
	if hadSelection {
		if serr := store.SelectByID(prev.ID); serr != nil {
			im.logger().Debug("previous selection is gone", "id", prev.ID, "error", serr)
		}
	}
	return err
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return im.Logger
}
