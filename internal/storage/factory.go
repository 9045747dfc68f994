package storage

import (
	"fmt"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// NewAdapter creates a storage adapter based on the configuration
func NewAdapter(cfg types.StorageConfig) (Adapter, error) {
	switch cfg.Adapter {
	case "local":
		return NewLocalAdapter(cfg.Local.BasePath)
	case "s3":
		return NewS3Adapter(S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	case "azblob":
		return NewAzBlobAdapter(AzBlobOptions{
			AccountName:        cfg.AzBlob.AccountName,
			AccountKey:         cfg.AzBlob.AccountKey,
			Container:          cfg.AzBlob.Container,
			ServiceURL:         cfg.AzBlob.ServiceURL,
			UseManagedIdentity: cfg.AzBlob.UseManagedIdentity,
		})
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}
