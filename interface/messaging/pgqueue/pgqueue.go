package pgqueue

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/airbusgeo/geomosaic/interface/messaging"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/utils"
	"github.com/btubbs/pgq"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type PublisherOption func(o *Publisher)

func WithMaxRetries(maxRetries int) PublisherOption {
	return func(p *Publisher) {
		p.maxRetries = maxRetries
	}
}

// Publisher implements messaging.Publisher
type Publisher struct {
	worker     *pgq.Worker
	queueName  string
	maxRetries int
}

// Consumer implements messaging.Consumer
type Consumer struct {
	worker    *pgq.Worker
	queueName string
	run       bool
}

func SetDefaultLogger() pgq.WorkerOption {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.WarnLevel)
	logger.SetOutput(os.Stdout)
	return pgq.SetLogger(logger)
}

func SqlConnect(ctx context.Context, dbConnection string) (*sql.DB, *pgq.Worker, error) {
	db, err := sql.Open("postgres", dbConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("pgqueue.Connect: %w", err)
	}
	db.SetMaxOpenConns(5)
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("pgqueue.Connect: failed to ping database: %w", err)
	}

	return db, pgq.NewWorker(db, SetDefaultLogger()), nil
}

// NewPublisher returns a pg queue publisher.
// A publisher can share its worker with another instance
func NewPublisher(w *pgq.Worker, queueName string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		queueName:  queueName,
		worker:     w,
		maxRetries: 0,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements Publisher
func (p *Publisher) Publish(ctx context.Context, data ...[]byte) error {
	return p.publish(ctx, 0, data...)
}

// publish with retry
func (p *Publisher) publish(ctx context.Context, retry int, data ...[]byte) error {
	retryIds := []int{}
	for i, d := range data {
		_, err := p.worker.EnqueueJob(p.queueName, d)
		if utils.Temporary(err) && retry < p.maxRetries {
			retryIds = append(retryIds, i)
		} else if err != nil {
			return fmt.Errorf("pgQueue.Publish: %w", err)
		}
	}

	if len(retryIds) > 0 {
		ndata := [][]byte{}
		for _, i := range retryIds {
			ndata = append(ndata, data[i])
		}
		time.Sleep(time.Second * time.Duration(math.Exp2(float64(retry))))
		return p.publish(ctx, retry+1, ndata...)
	}

	return nil
}

// NewConsumer returns a pg queue consumer.
// A consumer cannot share the worker with another instance
func NewConsumer(db *sql.DB, queueName string) *Consumer {
	return &Consumer{
		queueName: queueName,
		worker:    pgq.NewWorker(db, SetDefaultLogger()),
	}
}

// Pull implements Consumer
func (c *Consumer) Pull(ctx context.Context, cb messaging.Callback) error {
	cbwc := CallbackWithContext{
		ctx: ctx,
		cb:  cb,
	}
	if err := c.worker.RegisterQueue(c.queueName, cbwc.handler); err != nil {
		return fmt.Errorf("pgQueue.Pull.RegisterQueue: %w", err)
	}
	c.run = true
	return c.worker.Run()
}

func (c *Consumer) Stop() {
	if c.run {
		c.worker.StopChan <- true
	}
}

type CallbackWithContext struct {
	ctx context.Context
	cb  messaging.Callback
}

func (c *CallbackWithContext) handler(data []byte) error {
	if err := c.cb(c.ctx, &messaging.Message{
		ID:          "",
		Data:        data,
		Attributes:  map[string]string{},
		PublishTime: time.Time{},
		TryCount:    -1,
	}); err != nil {
		if utils.Temporary(err) {
			// Temporary error : retry
			log.Logger(c.ctx).Warn("temporary error", zap.Error(err))
			return err
		}
		// Fatal error : acknowledgement
		log.Logger(c.ctx).Error("fatal error", zap.Error(err))
		return nil
	}
	return nil
}
