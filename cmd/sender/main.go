package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/trungtd/schedassist/internal/logger"
	"github.com/trungtd/schedassist/internal/rabbit"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

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

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m := rabbit.Message{}
		err := json.Unmarshal(msg.Body, &m)
		if err != nil {
			log.Errorf("failed to parse message: %s", err)
			return
		}
		log.Infof("delivering notification %q", m.Title)
		if err := beeep.Notify(m.Title, m.Body, ""); err != nil {
			log.Errorf("failed to show desktop notification, message was %q: %v", m.Title, err)
		}
	})
	if err != nil {
		log.Errorf("failed to consume: %v", err)
	}
}
