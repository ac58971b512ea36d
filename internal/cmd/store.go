package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MrJJimenez/applycli/internal/config"
	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/report"
	"github.com/MrJJimenez/applycli/internal/store"
)

type StoreCmd struct {
	List   StoreListCmd   `cmd:"" help:"List job records."`
	Export StoreExportCmd `cmd:"" help:"Write the whole store as CSV."`
}

type StoreListCmd struct {
	Store  string `help:"Path to the job-record database." env:"APPLYCLI_STORE"`
	Status string `help:"Filter by status (applied, shortlisted, skipped, failed)." enum:",applied,shortlisted,skipped,failed" default:""`
}

type StoreExportCmd struct {
	Store string `help:"Path to the job-record database." env:"APPLYCLI_STORE"`
	Out   string `name:"out" required:"" help:"Output path for the CSV snapshot."`
}

func (c *StoreListCmd) Run(ctx *Context) error {
	records, err := loadRecords(c.Store)
	if err != nil {
		return err
	}

	if c.Status != "" {
		filtered := records[:0]
		for _, record := range records {
			if string(record.Status) == c.Status {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	format := report.FormatTable
	if ctx.JSONOutput {
		format = report.FormatJSON
	} else if ctx.PlainText {
		format = report.FormatCSV
	}
	return report.WriteRecords(ctx.Out, records, format)
}

func (c *StoreExportCmd) Run(ctx *Context) error {
	records, err := loadRecords(c.Store)
	if err != nil {
		return err
	}

	file, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := report.WriteRecords(file, records, report.FormatCSV); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	ctx.UI.Successf("Exported %d records to %s", len(records), c.Out)
	return nil
}

func loadRecords(path string) ([]models.JobRecord, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		var err error
		path, err = config.StorePath()
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}

	records, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer records.Close()

	return records.All(context.Background())
}
