package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"banas-client/internal/logging"
	"banas-client/internal/models"
)

// Result says where a statement ended up
type Result struct {
	Path      string // local file, "" when not written
	ObjectKey string // bucket key, "" when not uploaded
	Size      int
}

// Exporter writes statements to a directory and, when an uploader is set,
// to the bucket as well
type Exporter struct {
	dir      string
	uploader *Uploader
	log      *logrus.Entry
}

func NewExporter(dir string, uploader *Uploader, log *logrus.Entry) *Exporter {
	return &Exporter{dir: dir, uploader: uploader, log: logging.Or(log, "export")}
}

// ExportBill renders the bill and stores it. A failed upload still leaves
// the local file in place.
func (e *Exporter) ExportBill(ctx context.Context, d *models.BillDetail) (*Result, error) {
	st := StatementFrom(d)
	data, err := RenderPDF(st)
	if err != nil {
		return nil, err
	}

	res := &Result{Size: len(data)}
	if e.dir != "" {
		if err := os.MkdirAll(e.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export dir: %w", err)
		}
		res.Path = filepath.Join(e.dir, st.FileName())
		if err := os.WriteFile(res.Path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write statement: %w", err)
		}
	}

	if e.uploader != nil {
		key, err := e.uploader.Upload(ctx, st.FileName(), data)
		if err != nil {
			e.log.WithError(err).WithField("bill", st.Number).Warn("statement upload failed")
			return res, err
		}
		res.ObjectKey = key
	}

	e.log.WithFields(logrus.Fields{
		"bill":   st.Number,
		"path":   res.Path,
		"object": res.ObjectKey,
		"bytes":  res.Size,
	}).Info("statement exported")
	return res, nil
}
