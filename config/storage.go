package config

import (
	"sync"
)

var (
	storageOnce   sync.Once
	storageConfig *StorageConfig
)

// StorageConfig selects and configures the object storage backend holding
// raw page images.
type StorageConfig struct {
	Backend   string // "s3", "minio" or "memory"
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func GetStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		loadEnv()

		storageConfig = &StorageConfig{
			Backend:   getenv("STORAGE_BACKEND", "minio"),
			Bucket:    getenv("STORAGE_BUCKET", "page-images"),
			Region:    getenv("AWS_REGION", "us-east-1"),
			Endpoint:  getenv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getenv("STORAGE_SECRET_KEY", ""),
			UseSSL:    getenvBool("STORAGE_USE_SSL", false),
		}
	})
	return storageConfig
}
