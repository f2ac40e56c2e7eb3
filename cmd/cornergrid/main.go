// Command cornergrid builds, inspects, transforms and stores corner-point
// grids.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/api"
	"github.com/banshee-data/cornergrid/internal/config"
	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/gridio"
	"github.com/banshee-data/cornergrid/internal/gridstore"
	"github.com/banshee-data/cornergrid/internal/monitoring"
	"github.com/banshee-data/cornergrid/internal/version"
	"github.com/banshee-data/cornergrid/internal/well"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "cornergrid: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: cornergrid <command> [flags]

Commands:
  box       build a box grid from a config file
  info      describe a grid file
  convert   rewrite a grid file in another format
  crop      crop a grid file to an index window
  refine    refine the layers of a grid file
  hybrid    convert a grid file to a hybrid grid
  fence     sample layer numbers along a polyline
  zonecheck compare a well zone log with the grid zones
  store     save, list, load or migrate stored grids
  serve     serve stored grids over HTTP
  version   print the version
`)
}

// app carries what every command shares.
type app struct {
	stdout io.Writer
	stderr io.Writer
	log    monitoring.Sink
	cfg    *config.GridConfig
	files  *gridio.Files
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		usage(stderr)
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Grid config JSON (defaults apply to omitted fields)")
	verbose := fs.Bool("v", false, "Log diagnostics to stderr")
	root := fs.String("root", "", "Confine grid files to this directory")

	a := &app{stdout: stdout, stderr: stderr}
	var handler func(context.Context, *flag.FlagSet) error
	switch cmd {
	case "box":
		handler = a.box(fs)
	case "info":
		handler = a.info(fs)
	case "convert":
		handler = a.convert(fs)
	case "crop":
		handler = a.crop(fs)
	case "refine":
		handler = a.refine(fs)
	case "hybrid":
		handler = a.hybrid(fs)
	case "fence":
		handler = a.fence(fs)
	case "zonecheck":
		handler = a.zonecheck(fs)
	case "store":
		handler = a.store(fs)
	case "serve":
		handler = a.serve(fs)
	case "version":
		fmt.Fprintln(stdout, version.String("cornergrid"))
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		usage(stderr)
		return errUsage
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	var diag io.Writer
	if *verbose {
		diag = stderr
	}
	a.log = monitoring.NewStreams("[cornergrid] ", stderr, diag, nil)

	a.cfg = config.EmptyGridConfig()
	if *configPath != "" {
		cfg, err := config.LoadGridConfig(*configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	opts := []gridio.Option{gridio.WithSink(a.log)}
	if *root != "" {
		opts = append(opts, gridio.WithRoot(*root))
	}
	a.files = gridio.New(nil, opts...)
	return handler(ctx, fs)
}

func (a *app) read(path string) (*grid3d.Grid, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: -in is required", errUsage)
	}
	return a.files.Read(path, grid3d.WithRegularityTolerance(a.cfg.GetRegularityTolerance()))
}

func (a *app) write(path string, g *grid3d.Grid) error {
	if path == "" {
		return fmt.Errorf("%w: -out is required", errUsage)
	}
	if err := a.files.Write(path, g); err != nil {
		return err
	}
	ncol, nrow, nlay := g.Dimensions()
	fmt.Fprintf(a.stdout, "wrote %s: %d x %d x %d, %d active\n", path, ncol, nrow, nlay, g.NActive())
	return nil
}

func (a *app) box(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	out := fs.String("out", "", "Output grid file (.cgrid or .json); a directory gets a file named after the grid")
	name := fs.String("name", "box", "Grid name")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := grid3d.NewBox(a.cfg.BoxSpec(),
			grid3d.WithName(*name),
			grid3d.WithSink(a.log),
			grid3d.WithRegularityTolerance(a.cfg.GetRegularityTolerance()))
		if err != nil {
			return err
		}
		if f := a.cfg.GetRefineFactor(); f > 1 {
			if err := g.RefineVertically(grid3d.Refinement{Factor: f}); err != nil {
				return err
			}
		}
		path := *out
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = strings.TrimSuffix(path, "/") + "/" + gridio.FileName(*name, gridio.FormatSnapshot)
		}
		return a.write(path, g)
	}
}

func (a *app) info(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	asJSON := fs.Bool("json", false, "Print geometrics as JSON")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		geo, err := g.Geometrics(g.NActive() == 0, true)
		if err != nil {
			return err
		}
		if *asJSON {
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(geo)
		}
		fmt.Fprint(a.stdout, g.Describe())
		fmt.Fprintf(a.stdout, "  handedness: %v\n", g.Handedness())
		fmt.Fprintf(a.stdout, "  rotation: %.3f, avg dx/dy/dz: %.3f/%.3f/%.3f, regular: %t\n",
			geo.AvgRotation, geo.AvgDX, geo.AvgDY, geo.AvgDZ, geo.Regular)
		names := []string{""}
		for _, s := range g.SubgridCounts() {
			names = append(names, s.Name)
		}
		for _, n := range names {
			d, err := g.EstimateDesign(n)
			if err != nil {
				return err
			}
			label := n
			if label == "" {
				label = "(all layers)"
			}
			fmt.Fprintf(a.stdout, "  design %s: %s, dz %.3f\n", label, d.Design, d.DZSimbox)
		}
		return nil
	}
}

func (a *app) convert(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	out := fs.String("out", "", "Output grid file")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		return a.write(*out, g)
	}
}

func (a *app) crop(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	out := fs.String("out", "", "Output grid file")
	cols := fs.String("cols", "", "Column range lo:hi, 1-based inclusive (default all)")
	rows := fs.String("rows", "", "Row range lo:hi (default all)")
	lays := fs.String("lays", "", "Layer range lo:hi (default all)")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		ncol, nrow, nlay := g.Dimensions()
		var r [3][2]int
		for n, spec := range []struct {
			flag string
			max  int
		}{{*cols, ncol}, {*rows, nrow}, {*lays, nlay}} {
			if r[n], err = parseRange(spec.flag, spec.max); err != nil {
				return err
			}
		}
		if err := g.Crop(r[0], r[1], r[2], false); err != nil {
			return err
		}
		return a.write(*out, g)
	}
}

func (a *app) refine(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	out := fs.String("out", "", "Output grid file")
	factor := fs.Int("factor", 0, "Refinement factor for every layer (default refine_factor from config)")
	zones := fs.String("zones", "", "Per-subgrid factors, name=factor[,name=factor]")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		r := grid3d.Refinement{Factor: *factor}
		if r.Factor == 0 {
			r.Factor = a.cfg.GetRefineFactor()
		}
		if *zones != "" {
			r.PerSubgrid = make(map[string]int)
			for _, kv := range strings.Split(*zones, ",") {
				name, val, ok := strings.Cut(kv, "=")
				f, err := strconv.Atoi(val)
				if !ok || err != nil {
					return fmt.Errorf("%w: bad zone factor %q", errUsage, kv)
				}
				r.PerSubgrid[name] = f
			}
		}
		if err := g.RefineVertically(r); err != nil {
			return err
		}
		return a.write(*out, g)
	}
}

func (a *app) hybrid(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	out := fs.String("out", "", "Output grid file")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		if err := g.ConvertToHybrid(a.cfg.HybridSpec()); err != nil {
			return err
		}
		if t := a.cfg.GetDZThreshold(); t > 0 {
			n, err := g.InactivateByDZ(t)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "inactivated %d thin cells\n", n)
		}
		return a.write(*out, g)
	}
}

func (a *app) fence(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	line := fs.String("line", "", "Polyline as x,y;x,y;...")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		g, err := a.read(*in)
		if err != nil {
			return err
		}
		pts, err := parsePolyline(*line)
		if err != nil {
			return err
		}
		_, _, pk := g.Indices()
		fence, err := g.RandomLine(a.cfg.FenceSpec(pts), pk)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(a.stdout)
		return enc.Encode(fenceJSON(fence))
	}
}

// fenceJSON replaces NaN samples, which JSON cannot carry, by nulls.
func fenceJSON(f grid3d.Fence) map[string]any {
	values := make([][]*float64, len(f.Values))
	for r, row := range f.Values {
		values[r] = make([]*float64, len(row))
		for c, v := range row {
			if !math.IsNaN(v) {
				values[r][c] = &row[c]
			}
		}
	}
	return map[string]any{
		"hmin": f.HMin, "hmax": f.HMax,
		"zmin": f.ZMin, "zmax": f.ZMax, "zincrement": f.ZIncrement,
		"values": values,
	}
}

// zonecheck reports how well a well zone log matches the grid zones: the
// subgrid ordinals when the grid has subgrids, the layer numbers otherwise.
// With -id the grid is read from the store and the report is saved there.
func (a *app) zonecheck(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	in := fs.String("in", "", "Input grid file")
	dbPath := fs.String("db", "grids.db", "Grid store database, used with -id")
	id := fs.String("id", "", "Stored snapshot to check and report against")
	wellPath := fs.String("well", "", "Well JSON file")
	zoneLog := fs.String("zonelog", "ZONELOG", "Name of the well zone log")
	zones := fs.String("range", "", "Zone codes to count as lo:hi (default all zones)")
	shift := fs.Int("shift", 0, "Added to the well zone codes before comparing")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		if *wellPath == "" {
			return fmt.Errorf("%w: -well is required", errUsage)
		}
		f, err := os.Open(*wellPath)
		if err != nil {
			return err
		}
		w, err := well.ReadJSON(f, well.WithSink(a.log))
		f.Close()
		if err != nil {
			return fmt.Errorf("well file %s: %w", *wellPath, err)
		}

		var (
			g     *grid3d.Grid
			store *gridstore.Store
		)
		if *id != "" {
			store, err = gridstore.Open(*dbPath, gridstore.WithSink(a.log))
			if err != nil {
				return err
			}
			defer store.Close()
			g, err = store.LoadGrid(ctx, *id)
		} else {
			g, err = a.read(*in)
		}
		if err != nil {
			return err
		}

		// Subgrid ordinals are the zone codes; without subgrids every layer
		// is its own zone.
		_, _, zoneProp := g.Indices()
		_, _, nzones := g.Dimensions()
		if g.HasSubgrids() {
			if zoneProp, err = g.ZonePropertyFromSubgrids(); err != nil {
				return err
			}
			nzones = len(g.SubgridCounts())
		}
		r, err := parseRange(*zones, nzones)
		if err != nil {
			return err
		}
		res, err := g.ReportZoneMismatch(w, grid3d.ZoneMismatchSpec{
			ZoneProp:     zoneProp,
			ZoneLog:      *zoneLog,
			ZoneLogRange: r,
			ZoneLogShift: *shift,
		})
		if err != nil {
			return err
		}
		if store != nil {
			rep, err := store.SaveZoneMismatch(ctx, *id, w.Name(), *zoneLog, res)
			if err != nil {
				return err
			}
			a.log.Diagf("saved zone mismatch report %s", rep.ID)
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
}

func (a *app) store(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	dbPath := fs.String("db", "grids.db", "Grid store database")
	in := fs.String("in", "", "Grid file to save")
	id := fs.String("id", "", "Snapshot id to load or delete")
	out := fs.String("out", "", "Output grid file for load")
	name := fs.String("name", "", "Only list grids of this name")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		if fs.NArg() < 1 {
			return fmt.Errorf("%w: store needs an action: save, list, load, delete, migrate", errUsage)
		}
		store, err := gridstore.Open(*dbPath, gridstore.WithSink(a.log))
		if err != nil {
			return err
		}
		defer store.Close()

		switch action := fs.Arg(0); action {
		case "save":
			g, err := a.read(*in)
			if err != nil {
				return err
			}
			snap, err := store.SaveGrid(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, snap.ID)
		case "list":
			snaps, err := store.ListSnapshots(ctx, *name)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				fmt.Fprintf(a.stdout, "%s  %-20s %4d x %4d x %4d  %8d active  %s\n",
					s.ID, s.Name, s.NCol, s.NRow, s.NLay, s.NActive, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
		case "load":
			g, err := store.LoadGrid(ctx, *id)
			if err != nil {
				return err
			}
			return a.write(*out, g)
		case "delete":
			return store.DeleteSnapshot(ctx, *id)
		case "migrate":
			v, dirty, err := store.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "schema version %d (latest %d), dirty: %t\n", v, gridstore.LatestVersion, dirty)
		default:
			return fmt.Errorf("%w: unknown store action %q", errUsage, action)
		}
		return nil
	}
}

func (a *app) serve(fs *flag.FlagSet) func(context.Context, *flag.FlagSet) error {
	dbPath := fs.String("db", "grids.db", "Grid store database")
	listen := fs.String("listen", "127.0.0.1:8090", "HTTP listen address")
	return func(ctx context.Context, fs *flag.FlagSet) error {
		store, err := gridstore.Open(*dbPath, gridstore.WithSink(a.log))
		if err != nil {
			return err
		}
		defer store.Close()

		ln, err := net.Listen("tcp", *listen)
		if err != nil {
			return err
		}
		server := &http.Server{
			Handler:           api.LoggingMiddleware(a.log, api.NewServer(store, a.log).ServeMux()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		fmt.Fprintf(a.stdout, "listening on %s\n", ln.Addr())

		errc := make(chan error, 1)
		go func() {
			if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		a.log.Opsf("shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Opsf("HTTP server shutdown error: %v", err)
			server.Close()
		}
		return <-errc
	}
}

// parseRange parses "lo:hi" as a 1-based inclusive range. Empty means
// 1:max.
func parseRange(s string, max int) ([2]int, error) {
	if s == "" {
		return [2]int{1, max}, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	l, err1 := strconv.Atoi(lo)
	h, err2 := strconv.Atoi(hi)
	if !ok || err1 != nil || err2 != nil {
		return [2]int{}, fmt.Errorf("%w: bad range %q, want lo:hi", errUsage, s)
	}
	return [2]int{l, h}, nil
}

func parsePolyline(s string) ([]r3.Vec, error) {
	var pts []r3.Vec
	for _, xy := range strings.Split(s, ";") {
		xs, ys, ok := strings.Cut(strings.TrimSpace(xy), ",")
		x, err1 := strconv.ParseFloat(xs, 64)
		y, err2 := strconv.ParseFloat(ys, 64)
		if !ok || err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: bad polyline point %q", errUsage, xy)
		}
		pts = append(pts, r3.Vec{X: x, Y: y})
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: polyline needs at least 2 points", errUsage)
	}
	return pts, nil
}
