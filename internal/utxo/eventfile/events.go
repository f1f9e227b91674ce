// Package eventfile reads event lists and batch job lists.
package eventfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

// ReadEventsFile reads the event list at path.
func ReadEventsFile(path string) ([]model.EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	return ReadEvents(f)
}

// ReadEvents reads rows of name,date_time,change_percent. Rows are returned
// unparsed so that a malformed row fails only its own event.
func ReadEvents(src io.Reader) ([]model.EventRecord, error) {
	reader := newReader(src)
	idx, err := readHeader(reader, "name", "date_time", "change_percent")
	if err != nil {
		return nil, fmt.Errorf("read events header: %w", err)
	}

	var records []model.EventRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		if blank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		records = append(records, model.EventRecord{
			Line:          line,
			Name:          idx.get(row, "name"),
			DateTime:      idx.get(row, "date_time"),
			ChangePercent: idx.get(row, "change_percent"),
		})
	}
	return records, nil
}

func newReader(src io.Reader) *csv.Reader {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

type columns map[string]int

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readHeader(reader *csv.Reader, required ...string) (columns, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	idx := make(columns, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
