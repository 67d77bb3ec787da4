// query-engine compiles and executes ad hoc analytic queries against a
// wide-column store, delivering results through the opaque result-sink
// interface. No production store driver ships (spec §1 non-goal); the
// "mem" backend below is the in-process fake the executor's own tests
// use, wired here so the binary is runnable end to end without an
// external cluster.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/netleaf/telemetry/pkg/cli"
	"github.com/netleaf/telemetry/pkg/query/compiler"
	"github.com/netleaf/telemetry/pkg/query/coord"
	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/sink"
	"github.com/netleaf/telemetry/pkg/store"
	"github.com/netleaf/telemetry/pkg/store/memstore"
	"github.com/netleaf/telemetry/pkg/util"
	"github.com/netleaf/telemetry/pkg/version"
)

// App holds CLI state shared across commands.
type App struct {
	configPath string
	storeKind  string
	sinkKind   string
	verbose    bool

	cfg *ProcessRuntime
}

// ProcessRuntime is the App's fully wired dependency set, built once in
// PersistentPreRunE.
type ProcessRuntime struct {
	store store.Store
	sink  sink.ResultSink
	ttl   *schema.TtlPublisher
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "query-engine",
	Short:         "Analytic query compiler, executor, and coordinator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		app.cfg = rt
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.storeKind, "store", "mem", "Store backend: mem (no production driver ships, spec §1)")
	rootCmd.PersistentFlags().StringVar(&app.sinkKind, "sink", "mem", "Result sink backend: mem | redis")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.AddCommand(queryCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <query.json>",
	Short: "Compile and execute a query JSON document (spec §6 Query API)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.Context(), args[0])
	},
}

func buildRuntime() (*ProcessRuntime, error) {
	var s store.Store
	switch app.storeKind {
	case "mem":
		s = memstore.New()
	default:
		return nil, fmt.Errorf("unknown store backend %q (no production driver ships, spec §1)", app.storeKind)
	}

	var sk sink.ResultSink
	switch app.sinkKind {
	case "mem":
		sk = sink.NewMemSink()
	case "redis":
		sk = sink.NewRedisSink(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
	default:
		return nil, fmt.Errorf("unknown sink backend %q", app.sinkKind)
	}

	ttl := schema.NewTtlPublisher()
	if err := ttl.Bootstrap(context.Background(), s, schema.DefaultBootstrapConfig); err != nil {
		util.Logger.Warnf("ttl bootstrap degraded: %v", err)
	}

	return &ProcessRuntime{store: s, sink: sk, ttl: ttl}, nil
}

func runQuery(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading query file: %w", err)
	}
	req, err := decodeQueryRequest(data)
	if err != nil {
		return fmt.Errorf("decoding query JSON: %w", err)
	}

	c := coord.NewCoordinator(app.cfg.store, app.cfg.sink, app.cfg.ttl, nil)
	handle := fmt.Sprintf("cli-%d", os.Getpid())
	if err := c.Execute(ctx, req, handle, "cli-user", ""); err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	if ms, ok := app.cfg.sink.(*sink.MemSink); ok {
		printMemSinkResult(ms, handle, req.SelectFields)
	} else {
		fmt.Printf("%s query delivered to sink under handle %q\n", cli.Green("OK"), handle)
	}
	return nil
}

// queryDoc mirrors the Query API JSON shape (spec §6), decoded into the
// compiler's Request type.
type queryDoc struct {
	Table        string              `json:"table"`
	StartTime    int64               `json:"start_time"`
	EndTime      int64               `json:"end_time"`
	SelectFields []string            `json:"select_fields"`
	Where        [][]termDoc         `json:"where"`
	Filter       [][]termDoc         `json:"filter"`
	Sort         int                 `json:"sort"`
	SortFields   []compiler.SortField `json:"sort_fields"`
	Limit        int                 `json:"limit"`
	SessionType  string              `json:"session_type"`
	FlowDirIng   *int                `json:"flow_dir"`
	SessionIsSI  *int                `json:"session_is_si"`
}

type termDoc struct {
	Name   string        `json:"name"`
	Op     compiler.Op   `json:"op"`
	Value  string        `json:"value"`
	Value2 string        `json:"value2"`
	Suffix *termDoc      `json:"suffix"`
}

func decodeQueryRequest(data []byte) (compiler.Request, error) {
	var doc queryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return compiler.Request{}, err
	}
	return compiler.Request{
		Table:        doc.Table,
		StartTime:    doc.StartTime,
		EndTime:      doc.EndTime,
		SelectFields: doc.SelectFields,
		Where:        termGroups(doc.Where),
		Filter:       termGroups(doc.Filter),
		Sort:         doc.Sort,
		SortFields:   doc.SortFields,
		Limit:        doc.Limit,
		SessionType:  doc.SessionType,
		FlowDirIng:   doc.FlowDirIng,
		SessionIsSI:  doc.SessionIsSI,
	}, nil
}

func termGroups(groups [][]termDoc) [][]compiler.Term {
	out := make([][]compiler.Term, len(groups))
	for i, group := range groups {
		terms := make([]compiler.Term, len(group))
		for j, t := range group {
			terms[j] = toTerm(t)
		}
		out[i] = terms
	}
	return out
}

func toTerm(t termDoc) compiler.Term {
	term := compiler.Term{Name: t.Name, Op: t.Op, Value: t.Value, Value2: t.Value2}
	if t.Suffix != nil {
		suffix := toTerm(*t.Suffix)
		term.Suffix = &suffix
	}
	return term
}

func printMemSinkResult(ms *sink.MemSink, handle string, selectFields []string) {
	if rows, ok := ms.Buffers[handle]; ok {
		cli.ResultTable(rows, selectFields).Flush()
		return
	}
	if groups, ok := ms.MultiMaps[handle]; ok {
		cli.GroupTable(groups).Flush()
	}
}
