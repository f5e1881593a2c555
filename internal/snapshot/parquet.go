package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/decimal128"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/file"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"github.com/google/uuid"

	"beruang/internal/core"
	"beruang/internal/frame"
)

const (
	metaID        = "beruang.snapshot_id"
	metaCreatedAt = "beruang.created_at"
	metaSource    = "beruang.source"
	metaDropped   = "beruang.dropped"

	// 18 digits fit any int64 cent amount.
	costPrecision = 18
	readBatch     = 4096
)

func arrowType(k frame.Kind) (arrow.DataType, error) {
	switch k {
	case frame.KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	case frame.KindDecimal:
		return &arrow.Decimal128Type{Precision: costPrecision, Scale: 2}, nil
	case frame.KindText:
		return arrow.BinaryTypes.String, nil
	}
	return nil, fmt.Errorf("no parquet type for %s", k)
}

func kindOf(t arrow.DataType) (frame.Kind, error) {
	switch t := t.(type) {
	case *arrow.Date32Type:
		return frame.KindDate, nil
	case *arrow.Decimal128Type:
		if t.Scale != 2 {
			return 0, fmt.Errorf("decimal column has scale %d, want 2", t.Scale)
		}
		return frame.KindDecimal, nil
	case *arrow.StringType, *arrow.LargeStringType:
		return frame.KindText, nil
	}
	return 0, fmt.Errorf("unsupported parquet column type %s", t)
}

// WriteParquet writes table to path with info in the file's key-value
// metadata.
func WriteParquet(path string, table *frame.Table, info core.SnapshotInfo) error {
	fields := make([]arrow.Field, len(table.Schema()))
	for i, f := range table.Schema() {
		typ, err := arrowType(f.Kind)
		if err != nil {
			return err
		}
		fields[i] = arrow.Field{Name: f.Name, Type: typ, Nullable: true}
	}
	md := arrow.NewMetadata(
		[]string{metaID, metaCreatedAt, metaSource, metaDropped},
		[]string{info.ID.String(), info.CreatedAt.UTC().Format(time.RFC3339), info.Source, strconv.Itoa(info.Dropped)},
	)
	schema := arrow.NewSchema(fields, &md)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	for i, f := range table.Schema() {
		col, err := table.Column(f.Name)
		if err != nil {
			return err
		}
		appendColumn(b.Field(i), col)
	}
	rec := b.NewRecord()
	defer rec.Release()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer out.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, out, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

func appendColumn(b array.Builder, col []frame.Value) {
	for _, v := range col {
		if !v.Valid {
			b.AppendNull()
			continue
		}
		switch b := b.(type) {
		case *array.Date32Builder:
			b.Append(arrow.Date32(v.Int))
		case *array.Decimal128Builder:
			b.Append(decimal128.FromI64(v.Int))
		case *array.StringBuilder:
			b.Append(v.Str)
		}
	}
}

// ReadParquet reads a Parquet table into a frame.Table. Files written by
// WriteParquet also yield their SnapshotInfo; any other file yields a zero
// SnapshotInfo apart from Rows.
func ReadParquet(ctx context.Context, path string) (*frame.Table, core.SnapshotInfo, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, core.SnapshotInfo{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer rdr.Close()

	info, err := infoFrom(rdr.MetaData().KeyValueMetadata())
	if err != nil {
		return nil, core.SnapshotInfo{}, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if info.ID == uuid.Nil {
		slog.DebugContext(ctx, "Parquet file carries no snapshot metadata", "snapshot_path", path)
	}

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: readBatch}, memory.DefaultAllocator)
	if err != nil {
		return nil, core.SnapshotInfo{}, fmt.Errorf("parquet reader: %w", err)
	}
	at, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, core.SnapshotInfo{}, fmt.Errorf("read snapshot: %w", err)
	}
	defer at.Release()

	schema := make(frame.Schema, at.NumCols())
	for i, f := range at.Schema().Fields() {
		k, err := kindOf(f.Type)
		if err != nil {
			return nil, core.SnapshotInfo{}, fmt.Errorf("column %q: %w", f.Name, err)
		}
		schema[i] = frame.Field{Name: f.Name, Kind: k}
	}
	table, err := frame.NewTable(schema)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}

	tr := array.NewTableReader(at, readBatch)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make([]frame.Value, rec.NumCols())
			for c := range row {
				row[c] = valueAt(rec.Column(c), r)
			}
			if err := table.AppendRow(row); err != nil {
				return nil, core.SnapshotInfo{}, err
			}
		}
	}
	info.Rows = table.Len()
	return table, info, nil
}

func valueAt(col arrow.Array, i int) frame.Value {
	if col.IsNull(i) {
		return frame.Null
	}
	switch col := col.(type) {
	case *array.Date32:
		return frame.DateValue(core.Date(col.Value(i)))
	case *array.Decimal128:
		return frame.MoneyValue(core.Money{Cents: int64(col.Value(i).LowBits())})
	case *array.String:
		return frame.TextValue(col.Value(i))
	case *array.LargeString:
		return frame.TextValue(col.Value(i))
	}
	return frame.Null
}

type keyValues interface {
	FindValue(key string) *string
}

func infoFrom(kv keyValues) (core.SnapshotInfo, error) {
	get := func(k string) string {
		if v := kv.FindValue(k); v != nil {
			return *v
		}
		return ""
	}
	var (
		info core.SnapshotInfo
		err  error
	)
	// Every key is optional; only a present but malformed value is an error.
	if id := get(metaID); id != "" {
		if info.ID, err = uuid.Parse(id); err != nil {
			return info, fmt.Errorf("snapshot id: %w", err)
		}
	}
	if at := get(metaCreatedAt); at != "" {
		if info.CreatedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return info, fmt.Errorf("created at: %w", err)
		}
	}
	info.Source = get(metaSource)
	if d := get(metaDropped); d != "" {
		if info.Dropped, err = strconv.Atoi(d); err != nil {
			return info, fmt.Errorf("dropped: %w", err)
		}
	}
	return info, nil
}
