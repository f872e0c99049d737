package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/battlesnakeio/fruitsnake/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	apiListen  = ":3005"
	promEnable = true
	promListen = ":9000"
)

func init() {
	serveCmd.Flags().StringVarP(&apiListen, "listen", "l", apiListen, "api address to listen on")
	serveCmd.Flags().BoolVar(&promEnable, "prometheus", promEnable, "enable prometheus metrics")
	serveCmd.Flags().StringVar(&promListen, "prometheus-listen", promListen, "prometheus http endpoint")
	serveCmd.Flags().AddFlagSet(backendFlags())
}

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "serves game sessions and recorded games over http",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		cfg, err := gameConfig()
		if err != nil {
			log.WithError(err).Fatal("invalid game config")
		}
		store, closeStore, err := openStore()
		if err != nil {
			log.WithError(err).Error("unable to start up backend store")
			os.Exit(1)
		}
		defer closeStore()

		s := api.New(apiListen, store, cfg)
		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("unclean shutdown")
			}
		}()

		log.WithFields(log.Fields{
			"listen":  apiListen,
			"backend": backend,
		}).Info("fruitsnake serving")
		s.WaitForExit()
	},
}

func prometheus() {
	if !promEnable {
		log.Info("prometheus exporter not enabled")
		return
	}

	log.WithField("addr", promListen).Info("starting prometheus exporter")
	go func() {
		r := http.NewServeMux()
		r.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(promListen, r); err != nil {
			log.WithError(err).Warn("prometheus failed to listen")
		}
	}()
}
