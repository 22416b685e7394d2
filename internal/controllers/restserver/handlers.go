package restserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	regexp "github.com/wasilibs/go-re2"

	"github.com/aprswatch/aprswatch/internal/fanout"
	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/storage"
	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/aprswatch/aprswatch/pkg/aprs"
	"github.com/aprswatch/aprswatch/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Paging bounds for the packet query API.
const (
	defaultPageSize = 100
	maxPageSize     = 1000
	maxSenderLen    = 15
)

// senderPattern is the sender filter grammar: a base callsign with an
// optional SSID suffix. Looser than full callsign validation so prefix
// stations (single-letter bases) remain searchable.
var senderPattern = regexp.MustCompile(`^[A-Z0-9]{1,6}(-[0-9]{1,2})?$`)

// Health staleness threshold: monitors refresh every 60s, so anything
// older than two intervals counts as down.
const healthMaxAge = 2 * time.Minute

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetPackets handles GET /api/v1/packets: filtered, paginated reads
// over stored packets.
func (h *Handlers) GetPackets(w http.ResponseWriter, req *http.Request) {
	query, vErr := parseSearchQuery(req)
	if vErr != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, vErr.Field, vErr.Reason)
		return
	}

	packets, total, err := h.controller.store.Search(req.Context(), *query)
	if err != nil {
		log.Errorf("packet search failed: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "", "internal error")
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK,
		NewPacketsResponse(packets, total, query.Page, query.PageSize))
}

// GetPacketByID handles GET /api/v1/packets/{id}.
func (h *Handlers) GetPacketByID(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "id", "must be an integer")
		return
	}

	packet, err := h.controller.store.GetPacketByID(req.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, "", "packet not found")
		return
	}
	if err != nil {
		log.Errorf("packet lookup failed: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "", "internal error")
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, packet.DTO())
}

// ServeHub upgrades the request to a websocket subscription session.
func (h *Handlers) ServeHub(w http.ResponseWriter, req *http.Request) {
	fanout.ServeWS(h.controller.hub, w, req)
}

// GetRequestLog returns the recent request history from the bounded
// in-memory buffer.
func (h *Handlers) GetRequestLog(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, log.GetHTTPLogBuffer().GetEntries())
}

// GetHealth reports aggregate liveness of the database and cache. Any
// unhealthy or stale component flips the response to 503.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	components := h.controller.health.GetAllHealth()

	status := storage.StatusHealthy
	code := http.StatusOK
	for name := range components {
		if !h.controller.health.IsHealthy(name, healthMaxAge) {
			status = storage.StatusUnhealthy
			code = http.StatusServiceUnavailable
			break
		}
	}
	if len(components) == 0 {
		status = storage.StatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	h.formatter.WriteResponse(w, req, code, HealthResponse{
		Status:     status,
		Components: components,
	})
}

// parseSearchQuery validates the query parameters of GET /api/v1/packets
// and builds the store query. The returned ValidationError names the
// offending parameter.
func parseSearchQuery(req *http.Request) (*storage.SearchQuery, *types.ValidationError) {
	params := req.URL.Query()

	query := &storage.SearchQuery{
		Page:     1,
		PageSize: defaultPageSize,
	}

	if raw := params.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, &types.ValidationError{Field: "page", Reason: "must be an integer >= 1"}
		}
		query.Page = page
	}

	if raw := params.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			return nil, &types.ValidationError{Field: "pageSize", Reason: "must be an integer between 1 and 1000"}
		}
		query.PageSize = size
	}

	if raw := params.Get("sender"); raw != "" {
		sender := strings.ToUpper(strings.TrimSpace(raw))
		if len(sender) > maxSenderLen {
			return nil, &types.ValidationError{Field: "sender", Reason: "must be at most 15 characters"}
		}
		if !senderPattern.MatchString(sender) {
			return nil, &types.ValidationError{Field: "sender", Reason: "must be a callsign like N0CALL or N0CALL-9"}
		}
		query.Sender = sender
	}

	if raw := params.Get("type"); raw != "" {
		if !aprs.ValidPacketType(raw) {
			return nil, &types.ValidationError{Field: "type", Reason: "unknown packet type"}
		}
		query.Type = aprs.PacketType(raw)
	}

	if raw := params.Get("from"); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			return nil, &types.ValidationError{Field: "from", Reason: "must be an ISO 8601 timestamp"}
		}
		query.From = from
	}

	if raw := params.Get("to"); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			return nil, &types.ValidationError{Field: "to", Reason: "must be an ISO 8601 timestamp"}
		}
		query.To = to
	}

	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, &types.ValidationError{Field: "from", Reason: "must not be after to"}
	}

	return query, nil
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates; dashboards
// send both.
func parseTimeParam(raw string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
