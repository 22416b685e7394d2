package restserver

import (
	"github.com/aprswatch/aprswatch/internal/storage"
	"github.com/aprswatch/aprswatch/internal/types"
)

// PacketsResponse is one page of the packet query API.
type PacketsResponse struct {
	Items      []types.PacketDTO `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalCount int64             `json:"totalCount"`
	TotalPages int               `json:"totalPages"`
	HasNext    bool              `json:"hasNext"`
	HasPrev    bool              `json:"hasPrev"`
}

// NewPacketsResponse derives the paging envelope from a search result.
func NewPacketsResponse(packets []types.Packet, total int64, page, pageSize int) PacketsResponse {
	items := make([]types.PacketDTO, len(packets))
	for i := range packets {
		items[i] = packets[i].DTO()
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return PacketsResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// HealthResponse aggregates the component health map for /health.
type HealthResponse struct {
	Status     string                         `json:"status"`
	Components map[string]*storage.HealthData `json:"components"`
}
