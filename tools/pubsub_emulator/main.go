package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/svc"
	"go.uber.org/zap"
)

func main() {
	projectID := flag.String("project", "projectID", "pubsub project")
	emulator := flag.String("emulator", "localhost:8085", "address of the pubsub emulator")
	requestsTopic := flag.String("requests", "mosaic-requests", "topic (and subscription) of the mosaic requests")
	eventsTopic := flag.String("events", "mosaic-events", "topic (and subscription) of the mosaic events")
	request := flag.String("publish", "", "json file of a mosaic request to publish once the topics are created")
	flag.Parse()

	log.Console()
	ctx := context.Background()
	os.Setenv("PUBSUB_EMULATOR_HOST", *emulator)

	client, err := pubsub.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal("pubsub.NewClient", zap.Error(err))
	}
	defer client.Close()

	for _, name := range []string{*requestsTopic, *eventsTopic} {
		log.Logger(ctx).Info("create topic and subscription", zap.String("name", name))
		topic, err := client.CreateTopic(ctx, name)
		if err != nil {
			log.Fatal("pubsub.CreateTopic", zap.Error(err))
		}
		if _, err = client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		}); err != nil {
			log.Fatal("pubsub.CreateSubscription", zap.Error(err))
		}
	}

	if *request == "" {
		return
	}
	f, err := os.Open(*request)
	if err != nil {
		log.Fatal("open request", zap.Error(err))
	}
	defer f.Close()
	evt, err := svc.UnmarshalRequestEvent(f)
	if err != nil {
		log.Fatal("read request", zap.Error(err))
	}
	data, err := svc.MarshalRequestEvent(*evt)
	if err != nil {
		log.Fatal("marshal request", zap.Error(err))
	}
	id, err := client.Topic(*requestsTopic).Publish(ctx, &pubsub.Message{Data: data}).Get(ctx)
	if err != nil {
		log.Fatal("publish request", zap.Error(err))
	}
	log.Logger(ctx).Info("request published", zap.String("request", evt.ID), zap.String("message", id))
}
