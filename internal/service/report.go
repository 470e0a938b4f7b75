package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/ports"
	"golang.org/x/sync/errgroup"
)

// DatasetKind describes how a backend payload is laid out for display.
type DatasetKind uint8

const (
	// DatasetTable is a JSON array rendered as rows and columns.
	DatasetTable DatasetKind = iota
	// DatasetRecord is a single JSON object rendered as field/value pairs.
	DatasetRecord
	// DatasetValue is any other JSON value rendered as text.
	DatasetValue
)

func (k DatasetKind) String() string {
	switch k {
	case DatasetTable:
		return "table"
	case DatasetRecord:
		return "record"
	default:
		return "value"
	}
}

// MarshalText encodes the kind by name.
func (k DatasetKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Field is one entry of a record dataset.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Dataset is the tabulated form of one backend resource.
type Dataset struct {
	Resource string      `json:"resource"`
	Kind     DatasetKind `json:"kind"`
	Columns  []string    `json:"columns,omitempty"`
	Rows     [][]string  `json:"rows,omitempty"`
	Fields   []Field     `json:"fields,omitempty"`
	Text     string      `json:"text,omitempty"`
}

// IsTable reports whether the dataset renders as rows and columns.
func (d Dataset) IsTable() bool { return d.Kind == DatasetTable }

// IsRecord reports whether the dataset renders as field/value pairs.
func (d Dataset) IsRecord() bool { return d.Kind == DatasetRecord }

// Report is everything a screen displays.
type Report struct {
	Route    domainauth.Route
	Datasets []Dataset
}

// ReportServiceOptions groups dependencies for ReportService.
type ReportServiceOptions struct {
	Fetcher ports.ResourceFetcher
	Logger  *slog.Logger
}

// ReportService loads the backend resources behind a console screen.
type ReportService struct {
	fetcher ports.ResourceFetcher
	logger  *slog.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(opts ReportServiceOptions) *ReportService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{fetcher: opts.Fetcher, logger: logger}
}

// Load fetches all resources of rt concurrently. The first failure cancels
// the remaining fetches and is returned unchanged; partial results are
// discarded.
func (s *ReportService) Load(ctx context.Context, rt domainauth.Route, vars map[string]string) (Report, error) {
	paths, err := rt.ResolveResources(vars)
	if err != nil {
		return Report{}, err
	}

	datasets := make([]Dataset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			raw, fetchErr := s.fetcher.Fetch(gctx, p)
			if fetchErr != nil {
				return fetchErr
			}
			ds, tabErr := Tabulate(p, raw)
			if tabErr != nil {
				return fmt.Errorf("tabulate %s: %w", p, tabErr)
			}
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "screen load failed", "route", rt.Path, "error", err)
		}
		return Report{}, err
	}

	return Report{Route: rt, Datasets: datasets}, nil
}

// Tabulate converts a JSON payload into a display dataset. Object keys keep
// the order in which the backend sent them.
func Tabulate(resource string, raw json.RawMessage) (Dataset, error) {
	ds := Dataset{Resource: resource}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		ds.Kind = DatasetValue
		return ds, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Dataset{}, err
		}
		ds.Kind = DatasetTable
		ds.Columns, ds.Rows = tabulateRows(items)
		return ds, nil
	case '{':
		keys, values, err := orderedObject(trimmed)
		if err != nil {
			return Dataset{}, err
		}
		ds.Kind = DatasetRecord
		for i, k := range keys {
			ds.Fields = append(ds.Fields, Field{Name: k, Value: cellText(values[i])})
		}
		return ds, nil
	default:
		if !json.Valid(trimmed) {
			return Dataset{}, errors.New("invalid JSON payload")
		}
		ds.Kind = DatasetValue
		ds.Text = cellText(trimmed)
		return ds, nil
	}
}

func tabulateRows(items []json.RawMessage) ([]string, [][]string) {
	var columns []string
	index := map[string]int{}
	objects := make([]map[string]json.RawMessage, len(items))

	for i, item := range items {
		keys, values, err := orderedObject(item)
		if err != nil {
			// Scalar rows land in a single "value" column.
			keys, values = []string{"value"}, []json.RawMessage{item}
		}
		obj := make(map[string]json.RawMessage, len(keys))
		for j, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(columns)
				columns = append(columns, k)
			}
			obj[k] = values[j]
		}
		objects[i] = obj
	}

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for k, v := range obj {
			row[index[k]] = cellText(v)
		}
		rows[i] = row
	}
	return columns, rows
}

// orderedObject decodes a JSON object preserving key order.
func orderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("not a JSON object")
	}

	var keys []string
	var values []json.RawMessage
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, errors.New("object key is not a string")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

func cellText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
