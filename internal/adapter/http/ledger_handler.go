package httpadapter

import (
	"context"
	"strconv"
	"strings"

	"farmsession/internal/app/ports"
	"farmsession/internal/app/replay"
	"farmsession/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	FarmIDHeader    = "X-Farm-ID"
	SessionIDHeader = "X-Session-ID"
	SignatureHeader = "X-Signature"
	SenderHeader    = "X-Sender"
)

// LedgerHandler exposes the system of record over HTTP for remote session
// hosts.
type LedgerHandler struct {
	Ledger   ports.SessionGateway
	ReplayUC replay.UseCase
	KPI      kpiSnapshotProvider
	Metrics  ports.LedgerMetrics
	// AllowedOrigins restricts CORS. Empty allows any origin.
	AllowedOrigins []string
}

func (h LedgerHandler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))

	ledger := s.Group("/api/ledger")
	ledger.POST("/session/load", h.load)
	ledger.POST("/session/autosave", h.autosave)
	ledger.POST("/session/mint", h.mint)
	ledger.POST("/session/sync", h.sync)
	ledger.POST("/session/withdraw", h.withdraw)
	ledger.GET("/actions", h.actions)

	s.GET("/ops/kpi", h.kpi)
}

type AutosaveRequest struct {
	Actions []farm.LoggedAction `json:"actions"`
}

type LoadResponse struct {
	Snapshot farm.Snapshot `json:"snapshot"`
}

type AutosaveResponse struct {
	Receipt ports.AutosaveReceipt `json:"receipt"`
}

func (h LedgerHandler) load(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	snapshot, err := h.Ledger.LoadSession(c, id)
	h.record("load", err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, LoadResponse{Snapshot: snapshot})
}

func (h LedgerHandler) autosave(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body AutosaveRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	receipt, err := h.Ledger.Autosave(c, id, body.Actions)
	h.record("autosave", err)
	if h.Metrics != nil {
		h.Metrics.RecordFlush(receipt.Applied, err != nil)
	}
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, AutosaveResponse{Receipt: receipt})
}

func (h LedgerHandler) mint(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body ports.MintRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	err = h.Ledger.Mint(c, id, body)
	h.record("mint", err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"ok": true})
}

func (h LedgerHandler) sync(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	err = h.Ledger.Sync(c, id)
	h.record("sync", err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"ok": true})
}

func (h LedgerHandler) withdraw(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body ports.WithdrawRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	err = h.Ledger.Withdraw(c, id, body)
	h.record("withdraw", err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"ok": true})
}

func (h LedgerHandler) actions(c context.Context, ctx *app.RequestContext) {
	id, err := identityFromHeaders(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	// History is only served to the session that owns the farm.
	if _, err := h.Ledger.LoadSession(c, id); err != nil {
		writeError(ctx, err)
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	confirmedFrom, _ := strconv.ParseInt(string(ctx.Query("confirmed_from")), 10, 64)
	confirmedTo, _ := strconv.ParseInt(string(ctx.Query("confirmed_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		FarmID:        id.FarmID,
		Limit:         limit,
		ConfirmedFrom: confirmedFrom,
		ConfirmedTo:   confirmedTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h LedgerHandler) record(op string, err error) {
	if h.Metrics != nil {
		h.Metrics.RecordLedgerCall(op, err != nil)
	}
}

func (h LedgerHandler) kpi(_ context.Context, ctx *app.RequestContext) {
	writeKPI(ctx, h.KPI)
}

func identityFromHeaders(ctx *app.RequestContext) (ports.Identity, error) {
	farmID, err := strconv.ParseInt(strings.TrimSpace(string(ctx.GetHeader(FarmIDHeader))), 10, 64)
	if err != nil || farmID <= 0 {
		return ports.Identity{}, ErrMissingFarmIDHeader
	}
	sessionID := strings.TrimSpace(string(ctx.GetHeader(SessionIDHeader)))
	if sessionID == "" {
		return ports.Identity{}, ErrMissingSessionIDHeader
	}
	return ports.Identity{
		FarmID:    farmID,
		SessionID: sessionID,
		Signature: strings.TrimSpace(string(ctx.GetHeader(SignatureHeader))),
		Sender:    strings.TrimSpace(string(ctx.GetHeader(SenderHeader))),
	}, nil
}

// writeInvalidJSON keeps unregistered action types distinguishable from
// malformed bodies.
func writeInvalidJSON(ctx *app.RequestContext, err error) {
	if errorsIsUnregistered(err) {
		writeError(ctx, err)
		return
	}
	writeErrorBody(ctx, consts.StatusBadRequest, CodeInvalidJSON, "invalid json")
}
