// Command nttclient is the relay-facing client CLI: it dials a relay
// over the frame transport, runs the multiplex session handshake, and
// drives commands against it, archiving results into the
// content-addressed store. Modeled on the teacher's cmd/cli layout
// (one file per command group, a shared lazily-initialized client).
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nttrelay/ntt/internal/frame"
	"github.com/nttrelay/ntt/internal/multiplex"
	"github.com/nttrelay/ntt/internal/store"
	"github.com/nttrelay/ntt/internal/tbe"
	"github.com/nttrelay/ntt/pkg/config"
	"github.com/nttrelay/ntt/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cfg        *config.Config
	log        *logrus.Logger
	metricsReg *metrics.Metrics

	clientOnce sync.Once
	dataStore  *store.Store

	envName string
)

var rootCmd = &cobra.Command{
	Use:   "nttclient",
	Short: "client for the relay's node-to-node transport protocol",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(envName)
		if err != nil {
			return err
		}
		log = logrus.New()
		if lvl, lerr := logrus.ParseLevel(cfg.Logging.Level); lerr == nil {
			log.SetLevel(lvl)
		}
		if cfg.Metrics.Enabled {
			metricsReg = metrics.New(prometheus.NewRegistry())
		}
		return nil
	},
}

func openStore() (*store.Store, error) {
	var err error
	clientOnce.Do(func() {
		dataStore, err = store.Open(store.Config{
			RootPath:    cfg.Store.RootPath,
			NetworkName: cfg.Store.NetworkName,
		}, log)
		if err == nil && metricsReg != nil {
			dataStore.SetMetrics(metricsReg)
		}
	})
	return dataStore, err
}

// dialSession opens a TCP connection to the configured relay, runs the
// frame transport handshake and the multiplex session handshake, and
// returns a ready-to-use Session.
func dialSession() (*multiplex.Session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Network.RelayHost, cfg.Network.RelayPort)
	conn, err := frame.DialTimeout(addr, 10*time.Second, 30*time.Second)
	if err != nil {
		return nil, err
	}
	t, err := frame.Open(conn, frame.CryptoNonceSource{}, log)
	if err != nil {
		return nil, err
	}
	record := tbe.DefaultHandshake(cfg.Network.ProtocolMagic, [3]uint32{1, 0, 0})
	s, err := multiplex.New(t, record, log)
	if err != nil {
		return nil, err
	}
	if metricsReg != nil {
		s.SetMetrics(metricsReg)
	}
	return s, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment overlay config name")
	rootCmd.AddCommand(syncCmd, packCmd, pingCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
