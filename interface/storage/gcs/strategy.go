package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	geomosaicStorage "github.com/airbusgeo/geomosaic/interface/storage"
	"github.com/airbusgeo/geomosaic/internal/utils"
)

type gsStrategy struct {
	gsClient *storage.Client
}

var retriableOAuth2Errors = []string{
	"cannot assign requested address",
	"connection refused",
	"connection reset",
	"timeout",
	"broken pipe",
	"client connection force closed",
	"502 Bad Gateway",
}

var retriableSuffixErrors = []string{
	"http2: client connection lost",
	"http2: client connection force closed via ClientConn.Close",
	"EOF", // Unexpected EOF is a temporary error
}

func gsError(err error) error {
	if err == nil {
		return nil
	}
	if utils.Temporary(err) {
		return err
	}

	// grpc & oauth2 does not transfer the temporary status of error
	if strings.Contains(err.Error(), "oauth2: cannot fetch token:") {
		for _, e := range retriableOAuth2Errors {
			if strings.Contains(err.Error(), e) {
				return utils.MakeTemporary(err)
			}
		}
	}

	for _, e := range retriableSuffixErrors {
		if strings.HasSuffix(err.Error(), e) {
			return utils.MakeTemporary(err)
		}
	}
	return err
}

func NewGsStrategy(ctx context.Context) (geomosaicStorage.Strategy, error) {
	gsClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gs Client : %w", gsError(err))
	}
	return gsStrategy{gsClient: gsClient}, nil
}

// retry calls f until it succeeds, returns a non-temporary error or the max tries is reached
func retry(opts []geomosaicStorage.Option, f func() error) error {
	op := geomosaicStorage.Apply(opts...)
	d := op.Delay
	var err error
	for try := 0; try < op.MaxTries; try++ {
		if try > 0 {
			time.Sleep(d)
			d *= 2
		}
		if err = gsError(f()); err == nil || !utils.Temporary(err) {
			return err
		}
	}
	return fmt.Errorf("failed after %d retries: %w", op.MaxTries, err)
}

func (s gsStrategy) Download(ctx context.Context, uri string, options ...geomosaicStorage.Option) ([]byte, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	buf := &bytes.Buffer{}
	err = retry(options, func() error {
		buf.Reset()
		r, err := s.gsClient.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return geomosaicStorage.ErrFileNotFound
			}
			return fmt.Errorf("newreader: %w", err)
		}
		defer r.Close()
		if _, err := io.Copy(buf, r); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s gsStrategy) Upload(ctx context.Context, uri string, data []byte, options ...geomosaicStorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	return retry(options, func() error {
		w := s.gsClient.Bucket(bucket).Object(object).NewWriter(ctx)
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			w.Close()
			return fmt.Errorf("copy: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("w.close: %w", err)
		}
		return nil
	})
}

func (s gsStrategy) Delete(ctx context.Context, uri string, options ...geomosaicStorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	ignoreNotFound := geomosaicStorage.Apply(options...).IgnoreNotFound
	return retry(options, func() error {
		err := s.gsClient.Bucket(bucket).Object(object).Delete(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			if ignoreNotFound {
				return nil
			}
			return geomosaicStorage.ErrFileNotFound
		}
		return err
	})
}

func (s gsStrategy) Exist(ctx context.Context, uri string) (bool, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return false, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	if _, err = s.gsClient.Bucket(bucket).Object(object).Attrs(ctx); err != nil {
		switch {
		case errors.Is(err, storage.ErrBucketNotExist):
			return false, fmt.Errorf("bucket not exist: %w", err)
		case errors.Is(err, storage.ErrObjectNotExist):
			return false, geomosaicStorage.ErrFileNotFound
		default:
			return false, fmt.Errorf("failed to check if file exist on storage: %w", gsError(err))
		}
	}

	return true, nil
}
