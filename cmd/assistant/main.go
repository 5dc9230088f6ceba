package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/trungtd/schedassist/internal/app"
	"github.com/trungtd/schedassist/internal/export"
	"github.com/trungtd/schedassist/internal/logger"
	"github.com/trungtd/schedassist/internal/parser"
	"github.com/trungtd/schedassist/internal/rabbit"
	"github.com/trungtd/schedassist/internal/scheduler"
	internalhttp "github.com/trungtd/schedassist/internal/server/http"
	"github.com/trungtd/schedassist/internal/storagebuilder"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

// logNotifier stands in when the queue is unreachable so reminders
// still land somewhere visible.
type logNotifier struct{}

func (logNotifier) Notify(title, body string) error {
	log.Infof("notification: %s - %s", title, body)
	return nil
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	loc, err := time.LoadLocation(config.Scheduler.Timezone)
	if err != nil {
		log.Errorf("failed to load timezone %q: %v", config.Scheduler.Timezone, err)
		return
	}

	var notifier scheduler.Notifier = logNotifier{}
	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit, notifications go to the log: %v", err)
	} else {
		notifier = r
		defer r.Close()
	}

	assistant := app.New(stor, parser.New(loc))
	engine := scheduler.New(stor, notifier, scheduler.Config{
		CheckInterval: config.Scheduler.CheckInterval,
		RepeatDelay:   config.Scheduler.RepeatDelay,
	})
	server := internalhttp.NewServer(config.Server, assistant, engine, export.New(stor))

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		if err := engine.Start(ctx); err != nil {
			log.Errorf("reminder engine failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("assistant is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		err := stor.Close(ctx)
		if err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
		os.Exit(1) //nolint:gocritic
	}
	ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	err = stor.Close(ctx)
	if err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
