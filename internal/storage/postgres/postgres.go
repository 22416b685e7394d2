// Package postgres implements the packet store on PostgreSQL via GORM.
package postgres

import (
	"context"
	"errors"

	"github.com/aprswatch/aprswatch/internal/database"
	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/storage"
	"github.com/aprswatch/aprswatch/internal/types"
	"gorm.io/gorm"
)

// Storage holds the connection for a PostgreSQL packet store
type Storage struct {
	DB *gorm.DB
}

// New sets up a new PostgreSQL storage backend and ensures the packets
// table and its indexes exist.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	var err error
	s := Storage{}

	log.Info("connecting to PostgreSQL...")
	s.DB, err = database.CreateConnection(connectionString)
	if err != nil {
		log.Warn("warning: unable to create a PostgreSQL connection:", err)
		return &Storage{}, err
	}

	log.Info("creating database table...")
	err = s.DB.WithContext(ctx).Exec(createTableSQL).Error
	if err != nil {
		log.Warn("warning: could not create table in database")
		return &Storage{}, err
	}

	log.Info("creating database indexes...")
	err = s.DB.WithContext(ctx).Exec(createIndexesSQL).Error
	if err != nil {
		log.Warn("warning: could not create indexes in database")
		return &Storage{}, err
	}

	s.startHealthMonitor(ctx)

	return &s, nil
}

// AddPacket stores a packet record in PostgreSQL
func (s *Storage) AddPacket(ctx context.Context, p *types.Packet) error {
	err := s.DB.WithContext(ctx).Create(p).Error
	if err != nil {
		log.Error("could not store packet:", err)
		return err
	}
	return nil
}

// GetPacketByID fetches a single packet row by primary key.
func (s *Storage) GetPacketByID(ctx context.Context, id int64) (*types.Packet, error) {
	var p types.Packet
	err := s.DB.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Search returns one page of packets matching the query, plus the total
// number of matching rows. Results are newest first; rows that share a
// received_at timestamp order by descending id so pages never overlap.
func (s *Storage) Search(ctx context.Context, q storage.SearchQuery) ([]types.Packet, int64, error) {
	db := s.DB.WithContext(ctx).Model(&types.Packet{})

	if q.Sender != "" {
		db = db.Where("(sender_callsign = ? OR sender_base = ?)", q.Sender, q.Sender)
	}
	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}
	if q.From != nil {
		db = db.Where("received_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("received_at <= ?", *q.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var packets []types.Packet
	err := db.Order("received_at DESC, id DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&packets).Error
	if err != nil {
		return nil, 0, err
	}

	return packets, total, nil
}

// Ping verifies database connectivity
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
