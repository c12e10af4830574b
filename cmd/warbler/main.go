package main

import (
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/cmd/server"
	"github.com/thereayou/warbler/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("server setup failed")
	}

	if err := srv.Run(); err != nil {
		srv.Log.WithError(err).Fatal("server exited")
	}
}
