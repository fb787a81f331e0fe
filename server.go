package folders

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

// Run supervises the HTTP service until SIGINT or SIGTERM.
func (s *Server) Run() error {
	supervisor := suture.New("server", suture.Spec{
		EventHook: func(e suture.Event) {
			logrus.WithFields(logrus.Fields(e.Map())).Warn(e.String())
		},
	})

	fileStore := NewFolderStore(s.config)
	httpService := NewHTTPService(s.config, fileStore)
	supervisor.Add(httpService)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := supervisor.Serve(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
