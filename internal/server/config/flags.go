package config

import (
	"flag"
	"os"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/flagx"
)

var ownedFlags = []string{"-a", "-G", "-d", "-s", "-t", "-S", "-secure-cookie", "-f", "-U", "-u", "-p", "-b", "-g", "-e", "-l"}

// parseFlags populates Config from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-G string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   secret key for cookies and CSRF tokens
//	-t int      session TTL, minutes
//	-S string   session backend: memory | postgres
//	-secure-cookie  session cookie is sent over HTTPS only (bool)
//	-f string   file storage backend: local | s3
//	-U string   upload directory for local storage
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
//
// os.Args is filtered to the flags above first so that -c/-config (handled
// by parseJson) does not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], ownedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "G", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	fs.StringVar(&config.SessionBackend, "S", config.SessionBackend, "session backend (memory|postgres)")
	fs.BoolVar(&config.SecureCookie, "secure-cookie", config.SecureCookie, "mark the session cookie Secure")
	fs.StringVar(&config.StorageBackend, "f", config.StorageBackend, "file storage backend (local|s3)")
	fs.StringVar(&config.UploadDir, "U", config.UploadDir, "upload directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
