package config

import "time"

// ChatProviderConfig holds the credentials and defaults of one LLM backend
type ChatProviderConfig struct {
	APIKey  string `mapstructure:"apiKey"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"baseURL"`
}

// Configured reports whether every required credential is present.
func (c ChatProviderConfig) Configured() bool {
	return c.APIKey != ""
}

// AWSStorageConfig holds Amazon S3 credentials
type AWSStorageConfig struct {
	AccessKeyID     string        `mapstructure:"accessKeyID"`
	SecretAccessKey string        `mapstructure:"secretAccessKey"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	KeyPrefix       string        `mapstructure:"keyPrefix"`
	Endpoint        string        `mapstructure:"endpoint"` // S3-compatible endpoint override
	URLTTL          time.Duration `mapstructure:"urlTTL"`   // Presigned URL lifetime
}

func (c AWSStorageConfig) Configured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// CloudinaryStorageConfig holds Cloudinary credentials
type CloudinaryStorageConfig struct {
	CloudName    string `mapstructure:"cloudName"`
	APIKey       string `mapstructure:"apiKey"`
	APISecret    string `mapstructure:"apiSecret"`
	UploadPreset string `mapstructure:"uploadPreset"`
	Folder       string `mapstructure:"folder"`
	BaseURL      string `mapstructure:"baseURL"`
}

func (c CloudinaryStorageConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// GCPStorageConfig holds Google Cloud Storage credentials
type GCPStorageConfig struct {
	ProjectID string `mapstructure:"projectID"`
	KeyFile   string `mapstructure:"keyFile"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
}

func (c GCPStorageConfig) Configured() bool {
	return c.ProjectID != "" && c.KeyFile != "" && c.Bucket != ""
}

// PostgresStorageConfig holds the database used as a file store
type PostgresStorageConfig struct {
	DatabaseURL   string `mapstructure:"databaseURL"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
}

func (c PostgresStorageConfig) Configured() bool {
	return c.DatabaseURL != ""
}

// MongoDBStorageConfig holds the MongoDB deployment used as a GridFS file store
type MongoDBStorageConfig struct {
	URI           string `mapstructure:"uri"`
	Database      string `mapstructure:"database"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
}

func (c MongoDBStorageConfig) Configured() bool {
	return c.URI != ""
}
