package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"weavectl/internal/config"
	"weavectl/internal/daemon"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON, TOML or YAML)")
	force := flag.Bool("force", false, "Stop an existing daemon before starting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := cfg.Logger()

	if daemon.IsRunning() {
		if !*force {
			pid, err := daemon.RunningPID()
			if err != nil {
				log.WithError(err).Fatal("daemon appears running but pid check failed")
			}
			log.WithField("pid", pid).Info("daemon is already running, use --force to restart")
			return
		}
		log.Info("stopping existing daemon")
		if err := daemon.StopRunningDaemon(true); err != nil {
			log.WithError(err).Fatal("failed to stop running daemon")
		}
	}

	srv, err := daemon.StartDaemon(cfg)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			log.Info("another daemon holds the lock")
			return
		}
		log.WithError(err).Fatal("failed to start daemon")
	}
	log.WithField("pid", os.Getpid()).Info("daemon started, press Ctrl+C to stop")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info("stopping daemon")
	if err := srv.Close(); err != nil {
		log.WithError(err).Fatal("error shutting down daemon")
	}
	log.Info("daemon stopped")
}
