// Package config holds the compliance node configuration file.
package config

import (
	"github.com/bsc-digital-identity/zk-compliance/pkg/artifacts"
	"github.com/bsc-digital-identity/zk-compliance/pkg/ledger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/store"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

const (
	DefaultOutboxSchedule  = "@every 1m"
	DefaultOutboxBatchSize = 100
	DefaultRestPort        = 8080
)

type ComplianceNodeConfigJson struct {
	LoggerConf       logger.LoggerConfigJson    `json:"logger"`
	RabbitmqConf     rabbitmq.RabbimqConfigJson `json:"rabbitmq"`
	RestConf         RestConfigJson             `json:"rest"`
	SolanaConf       *ledger.SolanaConfigJson   `json:"solana,omitempty"`
	DatabaseConf     store.DatabaseConfigJson   `json:"database"`
	OutboxConf       OutboxConfigJson           `json:"outbox"`
	ShareRevealsConf ShareRevealsConfigJson     `json:"share_reveals"`
	ArtifactsConf    ArtifactsConfigJson        `json:"artifacts"`
}

type ComplianceNodeConfig struct {
	LoggerConf   logger.LoggerConfig
	RabbitmqConf rabbitmq.RabbitmqConfig
	RestConf     RestConfig
	// SolanaConf stays in its json form; resolving it reads the payer
	// keypair, which happens at startup. Nil selects the in-memory ledger.
	SolanaConf       *ledger.SolanaConfigJson
	DatabaseConf     store.DatabaseConfig
	OutboxConf       OutboxConfig
	ShareRevealsConf ShareRevealsConfig
	ArtifactsConf    ArtifactsConfig
}

func (c ComplianceNodeConfigJson) ConvertToDomain() ComplianceNodeConfig {
	return ComplianceNodeConfig{
		LoggerConf:       c.LoggerConf.ConvertToDomain(),
		RabbitmqConf:     c.RabbitmqConf.ConvertToDomain(),
		RestConf:         c.RestConf.ConvertToDomain(),
		SolanaConf:       c.SolanaConf,
		DatabaseConf:     c.DatabaseConf.ConvertToDomain(),
		OutboxConf:       c.OutboxConf.ConvertToDomain(),
		ShareRevealsConf: c.ShareRevealsConf.ConvertToDomain(),
		ArtifactsConf:    c.ArtifactsConf.ConvertToDomain(),
	}
}

func (c ComplianceNodeConfig) GetLoggerConfig() logger.LoggerConfig {
	return c.LoggerConf
}

func (c ComplianceNodeConfig) GetRabbitmqConfig() rabbitmq.RabbitmqConfig {
	return c.RabbitmqConf
}

func (c ComplianceNodeConfig) GetRestApiPort() uint16 {
	return c.RestConf.Port
}

func (c ComplianceNodeConfig) GetDatabaseConfig() store.DatabaseConfig {
	return c.DatabaseConf
}

// UsesSolana reports whether the node talks to a Solana program instead
// of the in-memory ledger.
func (c ComplianceNodeConfig) UsesSolana() bool {
	return c.SolanaConf != nil
}

type RestConfigJson struct {
	Port uint16 `json:"port"`
}

type RestConfig struct {
	Port uint16
}

func (r RestConfigJson) ConvertToDomain() RestConfig {
	return RestConfig{Port: utilities.Ternary(r.Port != 0, r.Port, uint16(DefaultRestPort))}
}

type OutboxConfigJson struct {
	Schedule       string `json:"schedule"`
	BatchSize      int    `json:"batch_size"`
	PublisherAlias string `json:"publisher_alias"`
}

type OutboxConfig struct {
	Schedule       string
	BatchSize      int
	PublisherAlias rabbitmq.PublisherAlias
}

func (o OutboxConfigJson) ConvertToDomain() OutboxConfig {
	return OutboxConfig{
		Schedule:       utilities.Ternary(o.Schedule != "", o.Schedule, DefaultOutboxSchedule),
		BatchSize:      utilities.Ternary(o.BatchSize > 0, o.BatchSize, DefaultOutboxBatchSize),
		PublisherAlias: rabbitmq.PublisherAlias(o.PublisherAlias),
	}
}

type ShareRevealsConfigJson struct {
	ConsumerAlias        string `json:"consumer_alias"`
	ResultPublisherAlias string `json:"result_publisher_alias"`
}

type ShareRevealsConfig struct {
	ConsumerAlias        rabbitmq.ConsumerAlias
	ResultPublisherAlias rabbitmq.PublisherAlias
}

func (s ShareRevealsConfigJson) ConvertToDomain() ShareRevealsConfig {
	return ShareRevealsConfig{
		ConsumerAlias:        rabbitmq.ConsumerAlias(s.ConsumerAlias),
		ResultPublisherAlias: rabbitmq.PublisherAlias(s.ResultPublisherAlias),
	}
}

type S3ConfigJson struct {
	Region   string `json:"region"`
	Endpoint string `json:"endpoint,omitempty"`
}

type ArtifactsConfigJson struct {
	S3           *S3ConfigJson                 `json:"s3,omitempty"`
	GCS          bool                          `json:"gcs"`
	MaxBytes     int64                         `json:"max_bytes,omitempty"`
	Circuits     []artifacts.CircuitSourceJson `json:"circuits"`
	Policies     []string                      `json:"policies"`
	EnvelopeKeys string                        `json:"envelope_keys,omitempty"`
}

// ArtifactsConfig lists where circuits, policies and issuer envelope keys
// are fetched from. Every location is an artifact URI.
type ArtifactsConfig struct {
	S3           *artifacts.S3SourceConfig
	GCS          bool
	MaxBytes     int64
	Circuits     []artifacts.CircuitSource
	Policies     []string
	EnvelopeKeys string
}

func (a ArtifactsConfigJson) ConvertToDomain() ArtifactsConfig {
	out := ArtifactsConfig{
		GCS:          a.GCS,
		MaxBytes:     utilities.Ternary(a.MaxBytes > 0, a.MaxBytes, artifacts.DefaultMaxBytes),
		Circuits:     utilities.ConvertJsonArrayToDomain[artifacts.CircuitSourceJson, artifacts.CircuitSource](a.Circuits),
		Policies:     a.Policies,
		EnvelopeKeys: a.EnvelopeKeys,
	}
	if a.S3 != nil {
		out.S3 = &artifacts.S3SourceConfig{Region: a.S3.Region, Endpoint: a.S3.Endpoint}
	}
	return out
}
