package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lodegrid.ai/internal/persistence/indexdb"
	persistlog "lodegrid.ai/internal/persistence/log"
	"lodegrid.ai/internal/persistence/snapshot"
	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/catalogs"
	"lodegrid.ai/internal/sim/colony"
	"lodegrid.ai/internal/sim/tuning"
	"lodegrid.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		gridID     = flag.String("grid", "grid_1", "grid id")
		seed       = flag.Int64("seed", 1337, "grid seed (used only when starting a fresh grid)")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "protocol schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (tick/audit + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	vals, err := protocol.LoadValidators(*schemaDir)
	if err != nil {
		logger.Fatalf("load schemas: %v", err)
	}

	gridDir := filepath.Join(*dataDir, "grids", *gridID)
	_ = os.MkdirAll(gridDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(gridDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index db: upsert catalogs: %v", err)
		}
	}

	// Create colony (fresh or resumed from snapshot).
	var c *colony.Colony
	gridSeed := *seed
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = snapshot.Latest(filepath.Join(gridDir, "snapshots"))
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.GridID != "" && snap.Header.GridID != *gridID {
			logger.Fatalf("snapshot grid id mismatch: flag=%s snap=%s", *gridID, snap.Header.GridID)
		}
		c, err = colony.FromSnapshot(snap, cats)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		gridSeed = snap.Seed
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), c.Tick())
	} else {
		c, err = colony.New(colony.ColonyConfig{
			ID:                     *gridID,
			Seed:                   *seed,
			TicksPerDay:            tune.TicksPerDay,
			HeartbeatIntervalTicks: uint64(tune.HeartbeatIntervalTicks),
			HeartbeatTimeoutCount:  uint64(tune.HeartbeatTimeoutCount),
		}, cats)
		if err != nil {
			logger.Fatalf("colony: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(gridDir)
	auditLog := persistlog.NewAuditLogger(gridDir)
	defer tickLog.Close()
	defer auditLog.Close()
	c.SetAuditSink(multiAuditSink{a: auditLog, b: idx})

	welcome := protocol.WelcomeMsg{
		GridParams: protocol.GridParams{
			TickRateHz:  tune.TickRateHz,
			TicksPerDay: tune.TicksPerDay,
			Seed:        gridSeed,
			GridID:      *gridID,
		},
		Catalogs: protocol.CatalogDigests{
			RigsDigest:       cats.Rigs.Digest,
			FacilitiesDigest: cats.Facilities.Digest,
			ShieldsDigest:    cats.Shields.Digest,
			ZonesDigest:      cats.Zones.Digest,
			EventsDigest:     cats.Events.Digest,
			ErasDigest:       cats.Eras.Digest,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		gs := c.GetGameState()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP lodegrid_tick Current grid tick.\n")
		fmt.Fprintf(rw, "# TYPE lodegrid_tick gauge\n")
		fmt.Fprintf(rw, "lodegrid_tick{grid=%q} %d\n", *gridID, gs.Tick)

		fmt.Fprintf(rw, "# HELP lodegrid_agents Registered and active agent counts.\n")
		fmt.Fprintf(rw, "# TYPE lodegrid_agents gauge\n")
		fmt.Fprintf(rw, "lodegrid_agents{grid=%q,state=%q} %d\n", *gridID, "total", gs.TotalAgents)
		fmt.Fprintf(rw, "lodegrid_agents{grid=%q,state=%q} %d\n", *gridID, "active", gs.ActiveAgents)

		fmt.Fprintf(rw, "# HELP lodegrid_total_hashrate Sum of all agent hashrates.\n")
		fmt.Fprintf(rw, "# TYPE lodegrid_total_hashrate gauge\n")
		fmt.Fprintf(rw, "lodegrid_total_hashrate{grid=%q} %d\n", *gridID, gs.TotalHashrate)

		fmt.Fprintf(rw, "# HELP lodegrid_emission_rate Tokens minted per tick at the current population.\n")
		fmt.Fprintf(rw, "# TYPE lodegrid_emission_rate gauge\n")
		fmt.Fprintf(rw, "lodegrid_emission_rate{grid=%q} %d\n", *gridID, gs.EmissionRate)

		fmt.Fprintf(rw, "# HELP lodegrid_supply Token supply counters.\n")
		fmt.Fprintf(rw, "# TYPE lodegrid_supply gauge\n")
		fmt.Fprintf(rw, "lodegrid_supply{grid=%q,kind=%q} %d\n", *gridID, "minted", gs.Supply.Minted)
		fmt.Fprintf(rw, "lodegrid_supply{grid=%q,kind=%q} %d\n", *gridID, "burned", gs.Supply.Burned)
		fmt.Fprintf(rw, "lodegrid_supply{grid=%q,kind=%q} %d\n", *gridID, "circulating", gs.Supply.Circulating)
		fmt.Fprintf(rw, "lodegrid_supply{grid=%q,kind=%q} %d\n", *gridID, "treasury", gs.Supply.Treasury)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(c, welcome, vals, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runTicker(gctx, c, tune, gridDir, tickLog, idx, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	g.Go(func() error {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatalf("server: %v", err)
	}
}

// runTicker drives the logical clock. Everything downstream (tick log, index,
// snapshots, liveness sweeps) hangs off this loop so a resumed grid produces
// the same artifacts as an uninterrupted one.
func runTicker(ctx context.Context, c *colony.Colony, tune tuning.Tuning, gridDir string,
	tickLog *persistlog.TickLogger, idx *indexdb.SQLiteIndex, logger *log.Logger) error {

	interval := time.Second / time.Duration(tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := c.Tick()
	for {
		select {
		case <-ctx.Done():
			writeSnapshotNow(c, gridDir, idx, logger)
			return ctx.Err()
		case <-ticker.C:
			tick++
			entry := c.AdvanceTo(tick)
			if err := tickLog.WriteTick(entry); err != nil {
				logger.Printf("tick log: %v", err)
			}
			if idx != nil {
				_ = idx.WriteTick(entry)
			}

			if tune.LivenessSweepEveryTicks > 0 && tick%uint64(tune.LivenessSweepEveryTicks) == 0 {
				if n := c.CheckLiveness(c.AgentIDs()); n > 0 {
					logger.Printf("liveness sweep: hibernated=%d tick=%d", n, tick)
				}
			}
			if tune.SnapshotEveryTicks > 0 && tick%uint64(tune.SnapshotEveryTicks) == 0 {
				writeSnapshotNow(c, gridDir, idx, logger)
			}
		}
	}
}

func writeSnapshotNow(c *colony.Colony, gridDir string, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	snap := c.ExportSnapshot()
	path := snapshot.PathFor(filepath.Join(gridDir, "snapshots"), snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		logger.Printf("snapshot write: %v", err)
		return
	}
	if idx != nil {
		idx.RecordSnapshot(path, snap)
	}
	logger.Printf("snapshot written tick=%d path=%s", snap.Header.Tick, filepath.Base(path))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiAuditSink struct {
	a colony.AuditSink
	b *indexdb.SQLiteIndex
}

func (m multiAuditSink) WriteAudit(entry colony.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
