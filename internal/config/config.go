package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App holds all runtime configuration, loaded from the environment.
type App struct {
	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Storage. An empty DSN selects the in-memory store.
	MySQLDSN string `envconfig:"MYSQL_DSN" default:""`

	// Presence. An empty address selects in-memory presence tracking.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	PresenceTTLHr int    `envconfig:"PRESENCE_TTL_HR" default:"24"`

	// Messaging. An empty URL disables the AMQP publisher.
	AMQPURL      string `envconfig:"AMQP_URL" default:""`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"auction.events"`

	// Scheduler intervals
	LifecycleIntervalSec int `envconfig:"LIFECYCLE_INTERVAL_SEC" default:"30"`
	FineIntervalMin      int `envconfig:"FINE_INTERVAL_MIN" default:"5"`
	EscalationIntervalHr int `envconfig:"ESCALATION_INTERVAL_HR" default:"1"`

	// Payment simulation
	PaymentApproveRate float64 `envconfig:"PAYMENT_APPROVE_RATE" default:"0.9"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
