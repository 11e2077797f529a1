package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dmbridge/pkg/catalog"
	"github.com/ruslano69/dmbridge/pkg/executor"
	"github.com/ruslano69/dmbridge/pkg/export"
)

// exportOptions merges config export settings with command-line switches
func exportOptions(cfg *Config, flags *Flags) export.Options {
	opts := cfg.Export
	if *flags.Compress {
		opts.Compress = true
	}
	if *flags.Checksum {
		opts.Checksum = true
	}
	return opts
}

// withOutput calls fn with the output file, or stdout when path is empty
func withOutput(path string, fn func(w *os.File) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeQuery writes rows to an xlsx workbook when the output ends in
// .xlsx, as JSON lines otherwise
func writeQuery(res *executor.QueryResult, output, sheet string, opts export.Options) error {
	if strings.HasSuffix(strings.ToLower(output), ".xlsx") {
		if err := export.WriteXLSX(output, sheet, res); err != nil {
			return err
		}
		log.Info().Int("rows", len(res.Rows)).Str("file", output).Msg("workbook written")
		return nil
	}

	return withOutput(output, func(w *os.File) error {
		sum, err := export.WriteJSONLines(w, res, opts)
		if err != nil {
			return err
		}
		ev := log.Info().Int("rows", sum.Rows).Int64("bytes", sum.Bytes).Bool("compressed", sum.Compressed)
		if sum.Checksum != "" {
			ev = ev.Str("xxh3", sum.Checksum)
		}
		ev.Msg("rows written")
		return nil
	})
}

// describeOutput is the JSON form of a catalog description
type describeOutput struct {
	Tables  []string                                   `json:"tables"`
	Columns map[string][]catalog.TableColumnDescriptor `json:"columns"`
}

func writeDescribe(w io.Writer, desc *catalog.Description) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(describeOutput{Tables: desc.Tables, Columns: desc.Data})
}

// writeBatch prints affected row counts, query rows as JSON lines and
// descriptions as JSON, in that order
func writeBatch(w io.Writer, res *executor.BatchResult) error {
	for i, n := range res.Executes {
		fmt.Fprintf(w, "-- execute %d: %d rows affected\n", i+1, n)
	}
	for i, q := range res.Queries {
		fmt.Fprintf(w, "-- query %d: %d rows\n", i+1, len(q.Rows))
		if _, err := export.WriteJSONLines(w, q, export.Options{}); err != nil {
			return err
		}
	}
	for _, d := range res.Describes {
		if err := writeDescribe(w, d); err != nil {
			return err
		}
	}
	return nil
}

// batchRows totals affected and returned rows of a batch
func batchRows(res *executor.BatchResult) int64 {
	if res == nil {
		return 0
	}
	var n int64
	for _, e := range res.Executes {
		n += e
	}
	for _, q := range res.Queries {
		n += int64(len(q.Rows))
	}
	return n
}
