package domain

import (
	"context"
	"io"
)

// ProviderConfig is the Domain's contract for what it needs to start a provider.
type ProviderConfig struct {
	ID            string
	Host          string
	Port          int
	Username      string
	Password      string
	TLS           bool
	MaxConnection int
	Priority      int
}

// Provider represents the contract for an upstream news server connection.
type Provider interface {
	ID() string
	Priority() int
	MaxConnection() int
	// Fetch streams the full article (head and body) for msgID.
	Fetch(ctx context.Context, msgID string) (io.Reader, error)
	TestConnection() error
	Close() error
}
