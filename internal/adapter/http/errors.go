package httpadapter

import (
	"encoding/json"
	"errors"

	"farmsession/internal/app/ledger"
	"farmsession/internal/app/ports"
	"farmsession/internal/app/replay"
	"farmsession/internal/app/session"
	"farmsession/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Error codes shared with the remote gateway client.
const (
	CodeBadRequest         = "bad_request"
	CodeInvalidJSON        = "invalid_json"
	CodeMissingIdentity    = "missing_identity"
	CodeUnregisteredAction = "unregistered_action"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRejected           = "rejected"
	CodeNotPlaying         = "not_playing"
	CodeInvalidTransition  = "invalid_transition"
	CodeGatewayFailure     = "gateway_failure"
	CodeInternal           = "internal_error"
)

var ErrMissingFarmIDHeader = errors.New("missing or invalid x-farm-id header")
var ErrMissingSessionIDHeader = errors.New("missing x-session-id header")

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingFarmIDHeader),
		errors.Is(err, ErrMissingSessionIDHeader):
		writeErrorBody(ctx, consts.StatusBadRequest, CodeMissingIdentity, err.Error())
	case errors.Is(err, farm.ErrUnregisteredAction):
		writeErrorBody(ctx, consts.StatusBadRequest, CodeUnregisteredAction, err.Error())
	case errors.Is(err, ledger.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, session.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, session.ErrNotPlaying):
		writeErrorBody(ctx, consts.StatusConflict, CodeNotPlaying, err.Error())
	case errors.Is(err, session.ErrInvalidTransition):
		writeErrorBody(ctx, consts.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, ports.ErrRejected):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, CodeRejected, err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeRejected(ctx *app.RequestContext, rej *farm.Rejection, snapshot farm.Snapshot) {
	ctx.JSON(consts.StatusConflict, map[string]any{
		"result_code": "REJECTED",
		"snapshot":    snapshot,
		"error": map[string]any{
			"code":      string(rej.Reason),
			"message":   rej.Error(),
			"retryable": false,
			"details": map[string]any{
				"action": string(rej.Action),
				"detail": rej.Detail,
			},
		},
	})
}

func errorsIsUnregistered(err error) bool {
	return errors.Is(err, farm.ErrUnregisteredAction)
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func writeKPI(ctx *app.RequestContext, kpi kpiSnapshotProvider) {
	if kpi == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, kpi.SnapshotAny())
}
