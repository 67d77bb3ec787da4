// syslog-collector ingests structured syslog over UDP, enriches each
// frame against the Configuration Registry and IP-Network Index, and
// logs each enriched record at debug level. It mirrors the teacher's
// single-binary-per-daemon layout (cmd/newtron) scaled down to one
// "serve" verb, since the collector has no noun-group resource tree of
// its own.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netleaf/telemetry/pkg/config"
	"github.com/netleaf/telemetry/pkg/ipindex"
	"github.com/netleaf/telemetry/pkg/sessioncache"
	"github.com/netleaf/telemetry/pkg/sink"
	"github.com/netleaf/telemetry/pkg/syslogin"
	"github.com/netleaf/telemetry/pkg/util"
	"github.com/netleaf/telemetry/pkg/version"
)

// App holds CLI state shared across commands.
type App struct {
	configPath string
	feedPath   string
	verbose    bool

	cfg *config.ProcessConfig
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "syslog-collector",
	Short:         "Structured syslog ingest and enrichment daemon",
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
		if app.configPath == "" {
			app.cfg = &config.ProcessConfig{}
		} else {
			cfg, err := config.LoadProcessConfig(app.configPath)
			if err != nil {
				return fmt.Errorf("loading process config: %w", err)
			}
			app.cfg = cfg
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Process config YAML path")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	serveCmd.Flags().StringVar(&app.feedPath, "feed", "", "Path to a newline-delimited JSON config-event replay file")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Listen for structured syslog and enrich frames until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := config.New(ipindex.New())
	sessions := sessioncache.New(app.cfg.SessionCacheLimit)

	if app.feedPath != "" {
		if err := replayFeedFile(ctx, app.feedPath, reg); err != nil {
			return fmt.Errorf("replaying config feed: %w", err)
		}
	}

	emit := func(rec syslogin.EnrichedRecord) {
		util.WithFields(map[string]interface{}{
			"source": rec.Attribs["Source"],
			"tag":    rec.Attribs["data.tag"],
			"ts":     rec.TimestampUS,
		}).Debug("enriched syslog record")
	}
	forward := func(f *syslogin.Frame, processed bool) {
		util.WithPeer(f.Peer).Debugf("forwarding frame (pre-processed=%v)", processed)
	}

	parser := syslogin.NewParser(reg, sessions, emit, forward)

	conn, err := net.ListenPacket("udp", app.cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("binding %s: %w", app.cfg.BindAddress, err)
	}
	defer conn.Close()

	dgram := &udpDatagram{conn: conn}
	util.WithField("addr", app.cfg.BindAddress).Info("syslog-collector listening")

	residuals := make(map[string][]byte)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		data, peer, err := dgram.ReadFrom(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			util.Logger.Warnf("datagram read failed: %v", err)
			continue
		}
		residual, ok := parser.Parse(data, residuals[peer], peer)
		residuals[peer] = residual
		if !ok {
			util.WithPeer(peer).Warn("one or more frames in datagram failed to parse")
		}
	}
}

// udpDatagram adapts a net.PacketConn to sink.Datagram, the collector's
// concrete datagram-server implementation (SPEC_FULL §2).
type udpDatagram struct {
	conn net.PacketConn
}

func (d *udpDatagram) ReadFrom(ctx context.Context) ([]byte, string, error) {
	buf := make([]byte, 64*1024)
	n, addr, err := d.conn.ReadFrom(buf)
	if err != nil {
		return nil, "", err
	}
	return buf[:n], addr.String(), nil
}

var _ sink.Datagram = (*udpDatagram)(nil)

func replayFeedFile(ctx context.Context, path string, reg *config.Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	feed := config.NewChanFeed(1)
	go func() {
		defer close(feed.C)
		for _, line := range splitLines(data) {
			if len(line) == 0 {
				continue
			}
			feed.C <- config.ChanFeedEvent{Raw: line, AddChange: true}
		}
	}()
	for {
		raw, addChange, err := feed.Next(ctx)
		if err != nil {
			return nil
		}
		reg.ReceiveConfig(raw, addChange)
	}
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
