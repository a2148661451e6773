package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/davidvella/byname/bench"
	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/generate"
	"github.com/davidvella/byname/incremental"
	"github.com/davidvella/byname/logging"
	"github.com/davidvella/byname/metrics"
	"github.com/davidvella/byname/store"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "byname",
		Short:         "Incremental by-name median benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "Config file (yaml, json or toml)")
	pf.IntP(keyVerbosity, "v", 0, "Log verbosity; 1 logs every tick, 2 adds deletion details")
	pf.Bool(keyDevelopment, false, "Human readable logs")
	pf.String(keyLast, generate.LastName, "Last name of the customer group")
	pf.Int32(keyDistrict, generate.DistrictID, "District of the customer group")
	pf.Int32(keyWarehouse, generate.WarehouseID, "Warehouse of the customer group")
	pf.String(keyStore, "", "Pebble directory to hydrate the base load through; empty keeps input in memory")

	root.AddCommand(newBenchCmd(), newMedianCmd(), newListCmd())
	return root
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time implementations over a matrix of update and deletion sizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := benchConfig(v)
			if err != nil {
				return err
			}
			log, err := logging.New("byname", loggingOptions(v))
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			opts := []bench.Option{
				bench.WithLogger(log),
				bench.WithMetrics(metrics.NewEngine(reg)),
			}

			if addr := v.GetString(keyMetricsAddr); addr != "" {
				shutdown, err := serveMetrics(addr, reg, log)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			if path := v.GetString(keyStore); path != "" {
				s, err := openStore(path, log)
				if err != nil {
					return err
				}
				defer s.Close()
				opts = append(opts, bench.WithLoader(bench.FromStore(s)))
			}

			results, err := bench.NewRunner(opts...).RunAll(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), v.GetString(keyFormat), results)
		},
	}

	def := bench.DefaultConfig()
	impls := make([]string, 0, len(def.Implementations))
	for _, i := range def.Implementations {
		impls = append(impls, i.String())
	}

	f := cmd.Flags()
	f.Int(keyBase, def.BaseSize, "Number of base customers")
	f.IntSlice(keyUpdates, def.UpdateSizes, "Update sizes")
	f.IntSlice(keyDeletes, nil, "Deletion sizes, paired with update sizes; defaults to the update sizes")
	f.StringSlice(keyImpl, impls, "Implementations to run (see list)")
	f.Int(keyIterations, def.Iterations, "Iterations per experiment")
	f.String(keyMetricsAddr, "", "Serve Prometheus metrics on this address while running")
	f.String(keyFormat, "table", "Output format: table or json")
	return cmd
}

func newMedianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "median",
		Short: "Run one base and update tick and print every median",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New("byname", loggingOptions(v))
			if err != nil {
				return err
			}
			impl, err := bench.ParseImplementation(v.GetString(keyImpl))
			if err != nil {
				return err
			}
			if !impl.Incremental() {
				return fmt.Errorf("median needs an incremental implementation, got %s", impl)
			}

			e := bench.Experiment{
				BaseSize:       v.GetInt(keyBase),
				UpdateSize:     v.GetInt(keyUpdates),
				DeleteSize:     v.GetInt(keyDeletes),
				Implementation: impl,
			}
			var load bench.LoadFunc = bench.Generated
			if path := v.GetString(keyStore); path != "" {
				s, err := openStore(path, log)
				if err != nil {
					return err
				}
				defer s.Close()
				load = bench.FromStore(s)
			}
			b, err := load(cmd.Context(), e)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := []incremental.Option{
				incremental.WithLogger(log),
				incremental.WithSink(incremental.SinkFunc(func(_ context.Context, tick int, median customer.Customer) error {
					_, err := fmt.Fprintf(out, "tick %d: id=%d first=%s\n", tick, median.ID, median.First)
					return err
				})),
			}
			p := params(v)

			var s incremental.Stepper
			switch impl {
			case bench.IncrementalSort:
				s = incremental.New(p, opts...)
			case bench.IncrementalSortWithDelete:
				s = incremental.New(p, append(opts, incremental.WithVariant(incremental.WithDeletions))...)
			default:
				s = incremental.NewIndexed(p, append(opts, incremental.WithVariant(incremental.WithDeletions))...)
			}
			return incremental.NewPipeline(s, b.Base, b.Updates, b.Deletions).RunToCompletion(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Int(keyBase, 10, "Number of base customers")
	f.Int(keyUpdates, 3, "Number of update customers")
	f.Int(keyDeletes, 0, "Number of deletions")
	f.String(keyImpl, bench.IncrementalSortWithDelete.String(), "Incremental implementation")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List implementations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, impl := range bench.Implementations() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), impl); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func openStore(path string, log logr.Logger) (*store.Store, error) {
	opts := store.DefaultOptions()
	opts.Logger = log.WithName("store")
	return store.Open(path, opts)
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry, log logr.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "metrics server stopped")
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func writeResults(w io.Writer, format string, results []bench.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "IMPLEMENTATION\tBASE\tUPDATE\tDELETE\tTHROUGHPUT\tP50\tP90\tP99\tMEDIAN")
		for _, r := range results {
			median := "-"
			if r.Found {
				median = r.Median.First
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
				r.Experiment.Implementation, r.Experiment.BaseSize, r.Experiment.UpdateSize,
				r.Experiment.DeleteSize, r.Throughput, r.P50, r.P90, r.P99, median)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
