// Package storage reads and writes small objects on the local filesystem or on a bucket.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// Strategy is implemented by each storage backend
type Strategy interface {
	Download(ctx context.Context, uri string, options ...Option) ([]byte, error)
	Upload(ctx context.Context, uri string, data []byte, options ...Option) error
	Delete(ctx context.Context, uri string, options ...Option) error
	// Exist returns false, ErrFileNotFound if the file does not exist
	Exist(ctx context.Context, uri string) (bool, error)
}

type Option func(o *option)

type option struct {
	MaxTries       int
	Delay          time.Duration
	IgnoreNotFound bool
}

func MaxTries(n int) Option {
	if n <= 0 {
		n = 1
	}
	return func(o *option) {
		o.MaxTries = n
	}
}

func OnErrorRetryDelay(d time.Duration) Option {
	if d < 0 {
		d = 0
	}
	return func(o *option) {
		o.Delay = d
	}
}

// IgnoreNotFound makes Delete succeed when the file does not exist
func IgnoreNotFound() Option {
	return func(o *option) {
		o.IgnoreNotFound = true
	}
}

func Apply(opts ...Option) option {
	opt := option{
		MaxTries: 10,
		Delay:    time.Second,
	}
	for _, o := range opts {
		o(&opt)
	}
	return opt
}
