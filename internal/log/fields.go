package log

import "time"

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldDuration     = "duration_ms"
	FieldSheet        = "sheet"
	FieldSheets       = "sheets"
	FieldRows         = "rows"
	FieldDropped      = "dropped"
	FieldWorkbook     = "workbook"
	FieldSnapshotPath = "snapshot_path"
	FieldSnapshotID   = "snapshot_id"
	FieldTimeGroup    = "time_group"
	FieldOutput       = "output"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentSheets   = "sheets"
	ComponentLedger   = "ledger"
	ComponentSnapshot = "snapshot"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentSink     = "sink"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCombine = "combine"
	OpSummary = "summary"
	OpNett    = "nett"
	OpAdd     = "add"
	OpPublish = "publish"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithIngest adds the outcome of one workbook ingestion.
func (f LogFields) WithIngest(workbook string, sheets, rows, dropped int) LogFields {
	f[FieldWorkbook] = workbook
	f[FieldSheets] = sheets
	f[FieldRows] = rows
	f[FieldDropped] = dropped
	return f
}

// WithDuration adds the elapsed time in milliseconds.
func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// WithSnapshot adds snapshot location fields
func (f LogFields) WithSnapshot(path, id string) LogFields {
	f[FieldSnapshotPath] = path
	if id != "" {
		f[FieldSnapshotID] = id
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
