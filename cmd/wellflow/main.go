package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/geocampo/wellflow/internal/ingest"
	"github.com/geocampo/wellflow/internal/models"
	"github.com/geocampo/wellflow/internal/report"
	"github.com/geocampo/wellflow/internal/store"
)

type ftpFlags struct {
	FTPAddr string `help:"FTP drop server address" default:"localhost:21" env:"WELLFLOW_FTP_ADDR"`
	FTPUser string `help:"FTP user" default:"anonymous" env:"WELLFLOW_FTP_USER"`
	FTPPass string `help:"FTP password" default:"anonymous" env:"WELLFLOW_FTP_PASS"`
	FTPDir  string `help:"drop directory on the server" default:"/" env:"WELLFLOW_FTP_DIR"`
}

type cli struct {
	DB string `help:"path to SQLite database" default:"data/wellflow.db" env:"WELLFLOW_DB"`

	Detect detectCmd `cmd:"" help:"Inspect a vendor file's header and list detected channels."`
	Import importCmd `cmd:"" help:"Import vendor measurement files."`
	Report reportCmd `cmd:"" help:"Synthesize daily or range operational reports."`
	Files  filesCmd  `cmd:"" help:"Inspect or delete imported files."`
	Wells  wellsCmd  `cmd:"" help:"List configured wells."`
	Seed   seedCmd   `cmd:"" help:"Seed demo systems, wells and the initial split rule."`
	Fetch  fetchCmd  `cmd:"" help:"Fetch new vendor files from the FTP drop into a local directory."`
	Watch  watchCmd  `cmd:"" help:"Poll the FTP drop and import new files unattended."`
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("wellflow"),
		kong.Description("Ingests vendor well telemetry, aggregates daily averages and synthesizes operational reports."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&app))
}

func (c *cli) openStore() (*store.Store, *sql.DB, error) {
	if dir := filepath.Dir(c.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", c.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, db, nil
}

type detectCmd struct {
	File string `arg:"" type:"existingfile" help:"vendor file to inspect"`
}

func (d *detectCmd) Run(c *cli) error {
	data, err := os.ReadFile(d.File)
	if err != nil {
		return err
	}
	channels, err := ingest.DetectChannels(string(data))
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("no channels detected; header has too few columns")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tCOLUMN\tMETRIC\tUNIT")
	for _, ch := range channels {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", ch.Name, ch.Index+1, ch.MetricType, ch.Unit)
	}
	return tw.Flush()
}

type importCmd struct {
	Files       []string          `arg:"" type:"existingfile" help:"vendor files, processed in order"`
	SkipChannel []string          `help:"channel names to disable"`
	Metric      map[string]string `help:"metric type override per channel (name=type)"`
	Unit        map[string]string `help:"unit override per channel (name=unit)"`
}

func (i *importCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var files []ingest.File
	for _, path := range i.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, ingest.File{Name: filepath.Base(path), Data: data})
	}

	// Channels come from the first file of the batch; the operator adjusts
	// them with flags instead of the configuration dialog.
	channels, err := ingest.DetectChannels(string(files[0].Data))
	if err != nil {
		return fmt.Errorf("detect channels in %s: %w", files[0].Name, err)
	}
	if len(channels) == 0 {
		return fmt.Errorf("no channels detected in %s; import requires channel configuration", files[0].Name)
	}
	for idx := range channels {
		ch := &channels[idx]
		for _, skip := range i.SkipChannel {
			if ch.Name == skip {
				ch.Enabled = false
			}
		}
		if m, ok := i.Metric[ch.Name]; ok {
			ch.MetricType = m
		}
		if u, ok := i.Unit[ch.Name]; ok {
			ch.Unit = u
		}
	}

	importer := ingest.NewImporter(st, channels)
	runErr := importer.Run(files)
	for _, msg := range importer.Diagnostics() {
		fmt.Println(msg)
	}
	return runErr
}

type reportCmd struct {
	Daily dailyReportCmd `cmd:"" help:"Daily report for one date."`
	Range rangeReportCmd `cmd:"" help:"Averages over saved daily reports in a date range."`
	Month monthReportCmd `cmd:"" help:"Averages over saved daily reports for a calendar month."`
}

type dailyReportCmd struct {
	Date string `required:"" help:"report date (YYYY-MM-DD)"`
	Calc bool   `help:"run the thermodynamic derivation before printing"`
	Save bool   `help:"persist the rows for this date"`
}

func (r *dailyReportCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	synth := report.NewSynthesizer(st)
	entries, persisted, err := synth.Daily(r.Date)
	if err != nil {
		return err
	}
	if r.Calc {
		report.Calculate(entries)
	}
	if r.Save {
		if err := synth.Save(r.Date, entries); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		persisted = true
	}

	systems, err := st.ListSystems()
	if err != nil {
		return err
	}
	printReport(entries, systems)
	if persisted {
		fmt.Println("\nstate: saved")
	} else {
		fmt.Println("\nstate: draft (not saved)")
	}
	return nil
}

type rangeReportCmd struct {
	Start string `required:"" help:"start date (YYYY-MM-DD), inclusive"`
	End   string `required:"" help:"end date (YYYY-MM-DD), inclusive"`
	Calc  bool   `help:"run the thermodynamic derivation over the range means"`
}

func (r *rangeReportCmd) Run(c *cli) error {
	return runRangeReport(c, r.Start, r.End, r.Calc)
}

type monthReportCmd struct {
	Month string `required:"" help:"calendar month (YYYY-MM)"`
	Calc  bool   `help:"run the thermodynamic derivation over the range means"`
}

func (r *monthReportCmd) Run(c *cli) error {
	first, err := time.Parse("2006-01", r.Month)
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", r.Month, err)
	}
	last := first.AddDate(0, 1, -1)
	return runRangeReport(c, first.Format("2006-01-02"), last.Format("2006-01-02"), r.Calc)
}

func runRangeReport(c *cli, start, end string, calc bool) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	synth := report.NewSynthesizer(st)
	entries, err := synth.Range(start, end)
	if err != nil {
		return err
	}
	if calc {
		report.Calculate(entries)
	}
	systems, err := st.ListSystems()
	if err != nil {
		return err
	}
	printReport(entries, systems)
	fmt.Println("\nstate: read-only range aggregate")
	return nil
}

func printReport(entries []models.ReportEntry, systems []models.System) {
	systemName := make(map[string]string, len(systems))
	for _, s := range systems {
		systemName[s.ID] = s.Name
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WELL\tTYPE\tSYSTEM\tSTATUS\tP.CAB\tP.SEP\tSTEAM\tWATER\tENTHALPY\tQUALITY\tHOURS\tSTEM\tTEMP")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f\t%.1f%%\t%.1f\t%.1f\t%.1f\n",
			e.WellName, e.WellType, systemName[e.SystemID], e.Status,
			e.HeadPressure, e.SepPressure, e.SteamFlow, e.WaterFlow,
			e.Enthalpy, e.Quality, e.OperationHours, e.StemDistance, e.Temperature)
	}
	steamTotal, waterTotal := report.TotalFlows(entries)
	fmt.Fprintf(tw, "TOTAL\t\t\t\t\t\t%.2f\t%.2f\t\t\t\t\t\n", steamTotal, waterTotal)
	tw.Flush()

	balances := report.Balance(entries, systems)
	if len(balances) > 0 {
		fmt.Println("\nwater balance per system:")
		for _, b := range balances {
			fmt.Printf("  %s: in %.1f, out %.1f, balance %+.1f\n", b.SystemName, b.WaterIn, b.WaterOut, b.Balance)
		}
	}
}

type filesCmd struct {
	List   filesListCmd   `cmd:"" default:"1" help:"List imported files."`
	Delete filesDeleteCmd `cmd:"" help:"Delete a file's measurements and affected averages."`
}

type filesListCmd struct{}

func (filesListCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := st.ImportedFiles()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLAST IMPORT\tRECORDS")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", f.FileName, f.LastImportedAt.Format(time.RFC3339), f.RecordCount)
	}
	return tw.Flush()
}

type filesDeleteCmd struct {
	Name string `arg:"" help:"imported file name"`
}

func (d *filesDeleteCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return st.DeleteImportedFile(d.Name)
}

type wellsCmd struct{}

func (wellsCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	wells, err := st.ListWells()
	if err != nil {
		return err
	}
	systems, err := st.ListSystems()
	if err != nil {
		return err
	}
	systemName := make(map[string]string, len(systems))
	for _, s := range systems {
		systemName[s.ID] = s.Name
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WELL\tTYPE\tSYSTEM\tSTATUS")
	for _, w := range wells {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.Name, w.Type, systemName[w.SystemID], w.Status)
	}
	return tw.Flush()
}

type seedCmd struct{}

func (seedCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	systems := []models.System{
		{ID: "1", Name: "Sistema Norte"},
		{ID: "2", Name: "Sistema Sur"},
		{ID: "3", Name: "Planta Central"},
	}
	wells := []models.Well{
		{ID: "1", Name: "TR-101", Type: models.WellProduction, SystemID: "1", Status: models.WellOpen, CreatedAt: now},
		{ID: "2", Name: "TR-102", Type: models.WellProduction, SystemID: "1", Status: models.WellClosed, CreatedAt: now},
		{ID: "3", Name: "TR-201", Type: models.WellReinjection, SystemID: "2", Status: models.WellOpen, CreatedAt: now},
		{ID: "4", Name: "TR-305", Type: models.WellProduction, SystemID: "3", Status: models.WellOpen, CreatedAt: now},
	}
	rule := models.ImportRule{
		ID:              "1",
		SourcePattern:   "TR-101",
		Action:          models.ActionSplit,
		TargetWellIDs:   []string{"1", "2"},
		SplitPercentage: 50,
	}

	for _, sys := range systems {
		if err := st.SaveSystem(sys); err != nil {
			return err
		}
	}
	for _, w := range wells {
		if err := st.SaveWell(w); err != nil {
			return err
		}
	}
	if err := st.SaveRule(rule); err != nil {
		return err
	}
	log.Println("seeded 3 systems, 4 wells, 1 rule")
	return nil
}

type fetchCmd struct {
	ftpFlags
	OutDir string `help:"directory for fetched files" default:"drop"`
}

func (f *fetchCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := st.ImportedFiles()
	if err != nil {
		return err
	}
	imported := make(map[string]bool, len(existing))
	for _, file := range existing {
		imported[file.FileName] = true
	}

	drop := ingest.NewDropClient(f.FTPAddr, f.FTPUser, f.FTPPass, f.FTPDir)
	files, err := drop.FetchNew(imported)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.OutDir, 0o755); err != nil {
		return err
	}
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(f.OutDir, file.Name), file.Data, 0o644); err != nil {
			return err
		}
		log.Printf("fetched %s (%d bytes)", file.Name, len(file.Data))
	}
	log.Printf("%d new files fetched", len(files))
	return nil
}

type watchCmd struct {
	ftpFlags
	Interval    time.Duration `help:"drop poll interval" default:"15m" env:"WELLFLOW_WATCH_INTERVAL"`
	MetricsAddr string        `help:"Prometheus metrics listen address" default:":9090" env:"WELLFLOW_METRICS_ADDR"`
}

func (w *watchCmd) Run(c *cli) error {
	st, db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: w.MetricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()
	defer server.Close()

	drop := ingest.NewDropClient(w.FTPAddr, w.FTPUser, w.FTPPass, w.FTPDir)
	watcher := ingest.NewWatcher(st, drop, w.Interval)
	log.Printf("watching %s%s every %s, metrics on %s", w.FTPAddr, w.FTPDir, w.Interval, w.MetricsAddr)
	watcher.Run(ctx)
	return nil
}
