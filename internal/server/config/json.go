package config

import (
	"encoding/json"
	"os"

	"github.com/abswdsmn/conference-organiser/internal/flagx"
	"github.com/abswdsmn/conference-organiser/internal/timex"
)

// JsonConfig mirrors Config for decoding. Durations accept "24h" style
// strings or integer nanoseconds. Fields missing from the file keep the
// value already present in Config.
type JsonConfig struct {
	EndpointAddrHTTP *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn"`
	SecretKey        *string         `json:"secret_key"`
	SessionTTL       *timex.Duration `json:"session_ttl"`
	SessionBackend   *string         `json:"session_backend"`
	SecureCookie     *bool           `json:"secure_cookie"`
	StorageBackend   *string         `json:"storage_backend"`
	UploadDir        *string         `json:"upload_dir"`
	S3RootUser       *string         `json:"s3_root_user"`
	S3RootPassword   *string         `json:"s3_root_password"`
	S3Bucket         *string         `json:"s3_bucket"`
	S3Region         *string         `json:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
	LogLevel         *string         `json:"log_level"`
}

// parseJson overlays the JSON file given with -c or -config onto config.
// Without the flag nothing happens. An unreadable file or invalid JSON
// panics, since the server cannot start with a half-read configuration.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	setString(&config.SessionBackend, c.SessionBackend)
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
