package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/skovtunenko/gracexit"
	"github.com/urfave/cli/v2"
)

// Instructions:
// - run the application, reach out to http://localhost:8080/
// - terminate the application (CTRL+C), or run it with --panic, --reject or --hang
// - with --hang press CTRL+C twice to force the exit
// - investigate the log output and the exit code

const hostPort = ":8080"

const (
	httpServerTerminationTimeout = 5 * time.Second
	failureDelay                 = 3 * time.Second

	// exitCodeBrokenWorker is returned by the exit handler when the worker failed.
	exitCodeBrokenWorker = 3
)

var errBrokenWorker = errors.New("worker is broken")

func main() {
	app := &cli.App{
		Name:  "gracexit-example",
		Usage: "demonstrates graceful process exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"GRACEXIT_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "error-exit-code",
				Usage: "exit code for unexpected exits",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format: console, hclog, json",
			},
			&cli.BoolFlag{
				Name:  "panic",
				Usage: "panic in the background worker",
			},
			&cli.BoolFlag{
				Name:  "reject",
				Usage: "fail the background worker with an error",
			},
			&cli.BoolFlag{
				Name:  "hang",
				Usage: "never finish the exit handler",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := log.Default()
	logger.Println("Application started...")

	cfg, err := gracexit.LoadConfig(gracexit.WithConfigFile(c.String("config")))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.IsSet("error-exit-code") {
		cfg.ErrorExitCode = c.Int("error-exit-code")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	coordinator := gracexit.Default()
	if err := coordinator.Configure(cfg); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	srv := NewServer(logger)
	srv.Init()

	ready := &atomic.Bool{}
	ready.Store(true)
	coordinator.OnWillExit(func(isExpectedExit bool) {
		logger.Printf("not ready anymore (expected exit: %v)", isExpectedExit)
		ready.Store(false)
	})

	hang := c.Bool("hang")
	if err := coordinator.SetExitHandler(func(isExpectedExit bool, cause error) (int, error) {
		logger.Println("terminating application...")
		defer logger.Println("...application terminated")

		if hang {
			select {}
		}

		ctx, cancel := context.WithTimeout(context.Background(), httpServerTerminationTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return 0, fmt.Errorf("shutdown HTTP Server: %w", err)
		}

		if errors.Is(cause, errBrokenWorker) {
			return exitCodeBrokenWorker, nil
		}
		return 0, nil
	}); err != nil {
		return fmt.Errorf("set exit handler: %w", err)
	}

	switch {
	case c.Bool("panic"):
		coordinator.Go(func() error {
			time.Sleep(failureDelay)
			panic("worker reached unexpected state")
		})
	case c.Bool("reject"):
		coordinator.Go(func() error {
			time.Sleep(failureDelay)
			return errBrokenWorker
		})
	}

	select {} // the process is terminated by the coordinator
}

type Server struct {
	logger     *log.Logger
	httpServer *http.Server
}

func NewServer(logger *log.Logger) *Server {
	return &Server{logger: logger}
}

func (s *Server) Init() {
	defer s.logger.Println("HTTP Server initialized")

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hello, world!\n")
	})

	s.httpServer = &http.Server{
		ReadHeaderTimeout: 60 * time.Second, // fix for potential Slowloris Attack
		Addr:              hostPort,
		Handler:           mux,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("terminated HTTP Server: %+v", err)
		}
	}()

	s.logger.Printf("HTTP Server started on: %q\n", hostPort)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("terminating HTTP Server component...")
	defer s.logger.Println("...HTTP Server component terminated")

	return s.httpServer.Shutdown(ctx)
}
