// Command gentemplate writes the blank payment report templates (CSV and XLSX) so they
// can be published alongside the API docs.
// Usage: go run ./cmd/gentemplate -dir ./dist
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"payops/internal/csvexport"
	"payops/internal/paymentreport"
)

const baseName = "payment_report_template"

func main() {
	dir := flag.String("dir", ".", "output directory")
	flag.Parse()

	if err := run(*dir); err != nil {
		logrus.WithError(err).Fatal("gentemplate failed")
	}
}

func run(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var csvBuf bytes.Buffer
	csvBuf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&csvBuf)
	if err := w.WriteTemplate(); err != nil {
		return fmt.Errorf("write csv template: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv template: %w", err)
	}

	var xlsxBuf bytes.Buffer
	if err := paymentreport.WriteTemplateXLSX(&xlsxBuf); err != nil {
		return fmt.Errorf("write xlsx template: %w", err)
	}

	for name, data := range map[string][]byte{
		baseName + ".csv":  csvBuf.Bytes(),
		baseName + ".xlsx": xlsxBuf.Bytes(),
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		logrus.WithFields(logrus.Fields{"path": path, "bytes": len(data)}).Info("template written")
	}
	return nil
}
