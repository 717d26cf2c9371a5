package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"

	ScreenDriverBasic = "basic"
	ScreenDriverDNN   = "dnn"
)

const (
	defaultUploadGraceDays     = 3
	defaultMaxBatchSize        = 20
	defaultDuplicateThreshold  = 0.2
	defaultArchiveQueueSize    = 50
	defaultNumArchiveWorkers   = 2
	defaultJWTExpirationHours  = 24
	defaultScreenUnsafeCutoff  = 0.7
	defaultLocalStorageSubPath = "uploads"
)

// UploadPolicy holds the tunables of the guest upload admission pipeline.
// Defaults apply whenever the corresponding environment variable is absent
// or unparsable.
type UploadPolicy struct {
	// GraceDays is added to the event date to derive the end of the upload
	// window; the bound is computed once at event creation.
	GraceDays int

	// DefaultMaxBatchSize is the fallback batch limit when the app-settings
	// store has no usable value for the batch-size key.
	DefaultMaxBatchSize int

	// DuplicateThreshold is the normalized Hamming distance below which two
	// fingerprints are treated as the same photo.
	DuplicateThreshold float64
}

type Config struct {
	// database path
	DatabasePath string

	// storage backend selection
	StorageDriver    string
	LocalStoragePath string // base dir for the local backend
	S3Endpoint       string
	S3Bucket         string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	S3UseSSL         bool

	// public-facing URLs
	PublicBaseURL   string // where this API is reachable (file links, QR target)
	FrontendBaseURL string // guest registration page encoded into QR codes

	// auth
	JWTSecret          string
	JWTExpirationHours int

	// content screen
	ScreenDriver       string
	ScreenModelPath    string
	ScreenUnsafeCutoff float64

	// archive worker settings
	ArchiveQueueSize  int
	NumArchiveWorkers int

	Upload UploadPolicy
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val <= 0 || val > 1 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "eventlens.db")

	localStorage := getEnvOrDefault("LOCAL_STORAGE_PATH", filepath.Join(".", defaultLocalStorageSubPath))
	absLocalStorage, err := filepath.Abs(localStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for local storage '%s': %w", localStorage, err)
	}

	driver := getEnvOrDefault("STORAGE_DRIVER", StorageDriverLocal)
	if driver != StorageDriverLocal && driver != StorageDriverS3 {
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER '%s' (want '%s' or '%s')", driver, StorageDriverLocal, StorageDriverS3)
	}

	screenDriver := getEnvOrDefault("SCREEN_DRIVER", ScreenDriverBasic)
	if screenDriver != ScreenDriverBasic && screenDriver != ScreenDriverDNN {
		return Config{}, fmt.Errorf("unknown SCREEN_DRIVER '%s' (want '%s' or '%s')", screenDriver, ScreenDriverBasic, ScreenDriverDNN)
	}

	cfg := Config{
		DatabasePath:       dbPath,
		StorageDriver:      driver,
		LocalStoragePath:   absLocalStorage,
		S3Endpoint:         getEnvOrDefault("S3_ENDPOINT", "s3.amazonaws.com"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getEnvOrDefault("S3_REGION", "ap-south-1"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:           getEnvOrDefault("S3_USE_SSL", "true") == "true",
		PublicBaseURL:      getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		FrontendBaseURL:    getEnvOrDefault("FRONTEND_BASE_URL", "http://localhost:3000"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", "change_me_in_production"),
		JWTExpirationHours: getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours),
		ScreenDriver:       screenDriver,
		ScreenModelPath:    getEnvOrDefault("SCREEN_MODEL_PATH", "./models/nsfw_mobilenet_v2.pb"),
		ScreenUnsafeCutoff: getEnvFloatOrDefault("SCREEN_UNSAFE_CUTOFF", defaultScreenUnsafeCutoff),
		ArchiveQueueSize:   getEnvIntOrDefault("ARCHIVE_QUEUE_SIZE", defaultArchiveQueueSize),
		NumArchiveWorkers:  getEnvIntOrDefault("NUM_ARCHIVE_WORKERS", defaultNumArchiveWorkers),
		Upload: UploadPolicy{
			GraceDays:           getEnvIntOrDefault("UPLOAD_GRACE_DAYS", defaultUploadGraceDays),
			DefaultMaxBatchSize: getEnvIntOrDefault("UPLOAD_MAX_BATCH_SIZE", defaultMaxBatchSize),
			DuplicateThreshold:  getEnvFloatOrDefault("UPLOAD_DUPLICATE_THRESHOLD", defaultDuplicateThreshold),
		},
	}

	if driver == StorageDriverS3 && (cfg.S3Bucket == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return Config{}, fmt.Errorf("STORAGE_DRIVER=s3 requires S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY")
	}

	return cfg, nil
}
