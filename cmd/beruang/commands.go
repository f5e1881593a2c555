package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"beruang/internal/amqp"
	"beruang/internal/backend"
	"beruang/internal/cli"
	"beruang/internal/config"
	"beruang/internal/core"
	"beruang/internal/frame"
	"beruang/internal/ledger"
	"beruang/internal/log"
	"beruang/internal/sheets"
	"beruang/internal/sink"
	"beruang/internal/snapshot"
)

type notifier interface {
	PublishSnapshotCreated(ctx context.Context, path string, info core.SnapshotInfo) error
	Close() error
}

type app struct {
	cfg     *config.Config
	logger  *log.Logger
	factory backend.Factory
	stdout  io.Writer
	stderr  io.Writer

	// dialNotifier is nil when AMQP_URL is unset.
	dialNotifier func() (notifier, error)
}

func newApp(cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) *app {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		factory: backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()),
		stdout:  stdout,
		stderr:  stderr,
	}
	if cfg.AMQPURL != "" {
		a.dialNotifier = func() (notifier, error) {
			return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		}
	}
	return a
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ingest reads the configured workbook into a ledger.
func (a *app) ingest(ctx context.Context, workbookPath string, sheetNames []string) (*ledger.Ledger, core.SnapshotInfo, error) {
	bcfg, err := backend.FromAppConfig(a.cfg, workbookPath)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	res, err := a.factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	header := cli.Header(a.cfg)
	ingestor := sheets.NewIngestor(res.Reader, header, a.logger.WithComponent(log.ComponentSheets).Slog())
	result, err := ingestor.Ingest(ctx, sheetNames)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	l, err := ledger.New(result.Table, header)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}

	a.logger.InfoContext(ctx, "Workbook ingested",
		log.NewFields().WithIngest(res.Source, len(sheetNames), result.Table.Len(), result.Dropped).ToSlice()...)
	return l, core.NewSnapshotInfo(res.Source, result.Table.Len(), result.Dropped), nil
}

func (a *app) runCombine(ctx context.Context, args []string) error {
	fs := a.flagSet(log.OpCombine)
	workbook := fs.String("workbook", "", "xlsx workbook path (default WORKBOOK_PATH)")
	sheetList := fs.String("sheets", strings.Join(a.cfg.SheetNames, ","), "comma-separated sheet names, in order")
	out := fs.String("out", a.cfg.SnapshotPath, "output path: .parquet or .db/.sqlite snapshot, or .csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	toCSV := strings.EqualFold(filepath.Ext(*out), ".csv")
	if !toCSV && !snapshot.IsSnapshot(*out) {
		return fmt.Errorf("%w: -out %q (want .csv, .parquet, .db or .sqlite)", snapshot.ErrUnknownFormat, *out)
	}

	l, info, err := a.ingest(ctx, *workbook, splitList(*sheetList))
	if err != nil {
		return err
	}

	if toCSV {
		if err := sink.WriteCSVFile(*out, l.Table()); err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "Combined ledger written", log.FieldOutput, *out, log.FieldRows, l.Table().Len())
		return nil
	}

	if err := snapshot.Save(ctx, *out, l, info); err != nil {
		return err
	}
	a.notify(ctx, *out, info)
	return nil
}

// notify announces a new snapshot. Failures only warn: the snapshot is
// already on disk.
func (a *app) notify(ctx context.Context, path string, info core.SnapshotInfo) {
	if a.dialNotifier == nil {
		return
	}
	logger := a.logger.WithComponent(log.ComponentAMQP)
	n, err := a.dialNotifier()
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, snapshot not announced", "error", err)
		return
	}
	defer n.Close()
	if err := n.PublishSnapshotCreated(ctx, path, info); err != nil {
		logger.WarnContext(ctx, "Failed to publish snapshot created message",
			log.NewFields().WithOperation(log.OpPublish).WithSnapshot(path, info.ID.String()).WithError(err).ToSlice()...)
	}
}

// reportFlags are shared by summary and nett.
type reportFlags struct {
	snapshot *string
	workbook *string
	sheets   *string
	out      *string
}

func (a *app) addReportFlags(fs *flag.FlagSet) reportFlags {
	return reportFlags{
		snapshot: fs.String("snapshot", a.cfg.SnapshotPath, "snapshot to read (.parquet or .db/.sqlite)"),
		workbook: fs.String("workbook", "", "read this xlsx workbook instead of a snapshot"),
		sheets:   fs.String("sheets", strings.Join(a.cfg.SheetNames, ","), "comma-separated sheet names when reading a workbook"),
		out:      fs.String("out", "", "write the report to this CSV file instead of stdout"),
	}
}

// loadLedger reads the snapshot, or the workbook when -workbook is set or
// -snapshot is empty.
func (a *app) loadLedger(ctx context.Context, rf reportFlags) (*ledger.Ledger, error) {
	if *rf.workbook != "" || *rf.snapshot == "" {
		l, _, err := a.ingest(ctx, *rf.workbook, splitList(*rf.sheets))
		return l, err
	}
	if !snapshot.IsSnapshot(*rf.snapshot) {
		return nil, fmt.Errorf("%w: -snapshot %q", snapshot.ErrUnknownFormat, *rf.snapshot)
	}
	l, info, err := snapshot.Load(ctx, *rf.snapshot, cli.Header(a.cfg))
	if err != nil {
		return nil, err
	}
	a.logger.DebugContext(ctx, "Snapshot loaded",
		log.NewFields().WithSnapshot(*rf.snapshot, info.ID.String()).ToSlice()...)
	return l, nil
}

func (a *app) emit(ctx context.Context, op string, lf *frame.LazyFrame, out string) error {
	start := time.Now()
	t, err := lf.Collect()
	if err != nil {
		return err
	}
	a.logger.WithComponent(log.ComponentLedger).DebugContext(ctx, "Report computed",
		log.NewFields().WithOperation(op).WithDuration(time.Since(start)).ToSlice()...)
	if out == "" {
		return sink.PrintTable(a.stdout, t)
	}
	if err := sink.WriteCSVFile(out, t); err != nil {
		return err
	}
	a.logger.WithComponent(log.ComponentSink).InfoContext(ctx, "Report written", log.FieldOutput, out, log.FieldRows, t.Len())
	return nil
}

func (a *app) runSummary(ctx context.Context, args []string) error {
	fs := a.flagSet(log.OpSummary)
	rf := a.addReportFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	l, err := a.loadLedger(ctx, rf)
	if err != nil {
		return err
	}
	return a.emit(ctx, log.OpSummary, l.Summarize(), *rf.out)
}

func (a *app) runNett(ctx context.Context, args []string) error {
	fs := a.flagSet(log.OpNett)
	rf := a.addReportFlags(fs)
	group := fs.String("group", ledger.Monthly.String(), "time group: quarterly, monthly, biweekly or weekly")
	exclude := fs.String("exclude", a.cfg.ExcludedCategory, "category left out of the net flow")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tg, err := ledger.ParseTimeGroup(*group)
	if err != nil {
		return err
	}
	l, err := a.loadLedger(ctx, rf)
	if err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "Computing net flow", log.FieldTimeGroup, tg.String())
	return a.emit(ctx, log.OpNett, l.Nett(tg, *exclude), *rf.out)
}

// Negative totals need "--" before the positional arguments.
var errAddUsage = errors.New("usage: beruang add -date YYYY-MM-DD -details TEXT [options] [--] <total-cents> <category> <participant>")

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := a.flagSet(log.OpAdd)
	date := fs.String("date", "", "transaction date, YYYY-MM-DD (required)")
	details := fs.String("details", "", "description (required)")
	account := fs.String("account", "MAYB", "account")
	currency := fs.String("currency", "MYR", "currency")
	file := fs.String("file", "transactions.csv", "CSV file to append to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 || *date == "" {
		return errAddUsage
	}

	d, err := core.ParseDate(*date)
	if err != nil {
		return err
	}
	total, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: total %q must be integer cents", core.ErrInvalidAmount, fs.Arg(0))
	}
	category, err := core.ParseCategory(fs.Arg(1))
	if err != nil {
		return err
	}

	tx := core.Transaction{
		Date:        d,
		Details:     *details,
		Category:    category,
		Account:     *account,
		Currency:    *currency,
		Cost:        core.Money{Cents: total},
		Participant: fs.Arg(2),
	}
	if err := sink.AppendTransaction(*file, tx); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Transaction appended", log.FieldOutput, *file, "total", tx.Cost.String())
	return nil
}
