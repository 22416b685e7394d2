// Package storage defines the packet store contract shared by the
// pipeline, the query API, and the storage backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/aprswatch/aprswatch/pkg/aprs"
)

// ErrNotFound is returned by lookups for packets that do not exist.
var ErrNotFound = errors.New("packet not found")

// SearchQuery is the filter set accepted by Search. Zero values mean
// no constraint. From and To bound received-at inclusively.
type SearchQuery struct {
	Sender   string // matches the full callsign or the base
	Type     aprs.PacketType
	From     *time.Time
	To       *time.Time
	Page     int // 1-indexed
	PageSize int
}

// PacketStore is a durable, indexed append plus filtered-read store
// for packets. Search results are ordered by received-at descending
// with ties broken by id descending, so pagination is stable for a
// fixed data set.
type PacketStore interface {
	// AddPacket persists p and assigns its integer identity.
	AddPacket(ctx context.Context, p *types.Packet) error

	// GetPacketByID returns the packet with the given identity, or
	// ErrNotFound.
	GetPacketByID(ctx context.Context, id int64) (*types.Packet, error)

	// Search returns one page of matching packets plus the total
	// number of matches across all pages.
	Search(ctx context.Context, q SearchQuery) ([]types.Packet, int64, error)

	// Ping reports store liveness.
	Ping(ctx context.Context) error
}
