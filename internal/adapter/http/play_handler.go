package httpadapter

import (
	"context"
	"errors"

	"farmsession/internal/app/ports"
	"farmsession/internal/app/session"
	"farmsession/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// PlayHandler drives one local session for a game client.
type PlayHandler struct {
	Session *session.Controller
	KPI     kpiSnapshotProvider
	// AllowedOrigins restricts CORS. Empty allows any origin.
	AllowedOrigins []string
}

func (h PlayHandler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))

	play := s.Group("/api/farm")
	play.GET("/state", h.state)
	play.POST("/action", h.action)
	play.POST("/save", h.save)
	play.POST("/mint", h.mint)
	play.POST("/sync", h.sync)
	play.POST("/withdraw", h.withdraw)
	play.POST("/restart", h.restart)

	s.GET("/ops/kpi", h.kpi)
}

type StateResponse struct {
	State    session.State     `json:"state"`
	Snapshot farm.Snapshot     `json:"snapshot"`
	Pending  int               `json:"pending_actions"`
	Identity ports.Identity    `json:"identity"`
	Error    string            `json:"error,omitempty"`
	Actions  []farm.ActionType `json:"actions"`
}

type ActionResponse struct {
	ResultCode string             `json:"result_code"`
	Queued     bool               `json:"queued"`
	Action     *farm.LoggedAction `json:"action,omitempty"`
	Snapshot   farm.Snapshot      `json:"snapshot"`
}

type mintRequest struct {
	Item farm.ItemName `json:"item"`
}

func (h PlayHandler) stateResponse() StateResponse {
	out := StateResponse{
		State:    h.Session.State(),
		Snapshot: h.Session.Snapshot(),
		Pending:  len(h.Session.PendingActions()),
		Identity: h.Session.Identity(),
		Actions:  farm.RegisteredActionTypes(),
	}
	if err := h.Session.Err(); err != nil {
		out.Error = err.Error()
	}
	return out
}

func (h PlayHandler) state(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.stateResponse())
}

// action accepts the {type, payload} envelope used by farm.DecodeAction.
func (h PlayHandler) action(_ context.Context, ctx *app.RequestContext) {
	a, err := farm.DecodeAction(ctx.Request.Body())
	if err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	res, err := h.Session.Dispatch(a)
	if err != nil {
		var rej *farm.Rejection
		if errors.As(err, &rej) {
			writeRejected(ctx, rej, res.Snapshot)
			return
		}
		writeError(ctx, err)
		return
	}
	out := ActionResponse{ResultCode: "OK", Queued: res.Queued, Snapshot: res.Snapshot}
	if res.Queued {
		out.ResultCode = "QUEUED"
	} else {
		out.Action = &res.Logged
	}
	ctx.JSON(consts.StatusOK, out)
}

func (h PlayHandler) save(c context.Context, ctx *app.RequestContext) {
	h.finish(ctx, h.Session.Save(c))
}

func (h PlayHandler) mint(c context.Context, ctx *app.RequestContext) {
	var body mintRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	h.finish(ctx, h.Session.Mint(c, body.Item))
}

func (h PlayHandler) sync(c context.Context, ctx *app.RequestContext) {
	h.finish(ctx, h.Session.Sync(c))
}

func (h PlayHandler) withdraw(c context.Context, ctx *app.RequestContext) {
	var body ports.WithdrawRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeInvalidJSON(ctx, err)
		return
	}
	h.finish(ctx, h.Session.Withdraw(c, body))
}

func (h PlayHandler) restart(c context.Context, ctx *app.RequestContext) {
	h.finish(ctx, h.Session.Restart(c))
}

func (h PlayHandler) kpi(_ context.Context, ctx *app.RequestContext) {
	writeKPI(ctx, h.KPI)
}

// finish reports the session after an async request. A failure that moved the
// session into error came from the gateway.
func (h PlayHandler) finish(ctx *app.RequestContext, err error) {
	if err == nil {
		ctx.JSON(consts.StatusOK, h.stateResponse())
		return
	}
	if errors.Is(err, session.ErrInvalidTransition) ||
		errors.Is(err, session.ErrInvalidRequest) ||
		h.Session.State() != session.StateError {
		writeError(ctx, err)
		return
	}
	writeErrorBody(ctx, consts.StatusBadGateway, CodeGatewayFailure, err.Error())
}
