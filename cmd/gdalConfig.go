package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/airbusgeo/osio"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"

	osioGcs "github.com/airbusgeo/osio/gcs"
	osioS3 "github.com/airbusgeo/osio/s3"
	aws3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// GDALConfig configures GDAL and the remote storages the layers are read from.
// It is filled either by the command line flags (GDALConfigFlags) or by the environment (env tags).
type GDALConfig struct {
	BlockSize       string `env:"GDAL_BLOCK_SIZE" envDefault:"1Mb"`
	NumCachedBlocks int    `env:"GDAL_NUM_CACHED_BLOCKS" envDefault:"500"`
	WithGCS         bool   `env:"WITH_GCS"`
	WithS3          bool   `env:"WITH_S3"`
	AwsRegion       string `env:"AWS_REGION"`
	AwsEndpoint     string `env:"AWS_ENDPOINT"`
	AwsCredentials  string `env:"AWS_SHARED_CREDENTIALS_FILE"`
}

// GDALConfigFlags declares the command line flags of the GDALConfig
func GDALConfigFlags() *GDALConfig {
	gdalConfig := GDALConfig{}
	flag.StringVar(&gdalConfig.BlockSize, "gdalBlockSize", "1Mb", "gdal blocksize value")
	flag.IntVar(&gdalConfig.NumCachedBlocks, "gdalNumCachedBlocks", 500, "gdal blockcache value")
	flag.BoolVar(&gdalConfig.WithGCS, "with-gcs", false, "configure GDAL to read gs:// layers (may need authentication)")
	flag.BoolVar(&gdalConfig.WithS3, "with-s3", false, "configure GDAL to read s3:// layers (may need authentication)")
	flag.StringVar(&gdalConfig.AwsRegion, "aws-region", "", "aws region of the s3 storage (--with-s3)")
	flag.StringVar(&gdalConfig.AwsEndpoint, "aws-endpoint", "", "aws endpoint of the s3 storage (--with-s3)")
	flag.StringVar(&gdalConfig.AwsCredentials, "aws-shared-credentials-file", "", "aws shared credentials file of the s3 storage (--with-s3)")
	return &gdalConfig
}

// InitGDAL registers the drivers and the gs:// and s3:// handlers
func InitGDAL(ctx context.Context, gdalConfig *GDALConfig) error {
	os.Setenv("GDAL_DISABLE_READDIR_ON_OPEN", "EMPTY_DIR")
	godal.RegisterAll()

	if gdalConfig.WithGCS {
		handle, err := osioGcs.Handle(ctx)
		if err != nil {
			return fmt.Errorf("gcs handle: %w", err)
		}
		if err := registerHandler("gs://", handle, gdalConfig); err != nil {
			return err
		}
	}

	if gdalConfig.WithS3 {
		opts := []func(*awsConfig.LoadOptions) error{}
		if gdalConfig.AwsCredentials != "" {
			opts = append(opts, awsConfig.WithSharedCredentialsFiles([]string{gdalConfig.AwsCredentials}))
		}
		if gdalConfig.AwsRegion != "" {
			opts = append(opts, awsConfig.WithRegion(gdalConfig.AwsRegion))
		}
		config, err := awsConfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		s3Client := aws3.NewFromConfig(config, func(o *aws3.Options) {
			if gdalConfig.AwsEndpoint != "" {
				o.BaseEndpoint = aws.String(gdalConfig.AwsEndpoint)
				o.UsePathStyle = true
			}
		})
		handle, err := osioS3.Handle(ctx, osioS3.S3Client(s3Client))
		if err != nil {
			return fmt.Errorf("s3 handle: %w", err)
		}
		if err := registerHandler("s3://", handle, gdalConfig); err != nil {
			return err
		}
	}
	return nil
}

func registerHandler(prefix string, handle osio.KeyStreamerAt, gdalConfig *GDALConfig) error {
	adapter, err := osio.NewAdapter(handle,
		osio.BlockSize(gdalConfig.BlockSize),
		osio.NumCachedBlocks(gdalConfig.NumCachedBlocks))
	if err != nil {
		return fmt.Errorf("%s adapter: %w", prefix, err)
	}
	if err := godal.RegisterVSIHandler(prefix, adapter); err != nil {
		return fmt.Errorf("register %s: %w", prefix, err)
	}
	return nil
}
