package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	httpadapter "farmsession/internal/adapter/http"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ErrBadRequest reports a request the ledger refused as malformed.
var ErrBadRequest = errors.New("ledger refused request")

// Doer is the subset of the hertz client used by Gateway.
type Doer interface {
	DoTimeout(ctx context.Context, req *protocol.Request, resp *protocol.Response, timeout time.Duration) error
}

// Gateway talks to the ledger HTTP API.
type Gateway struct {
	baseURL string
	timeout time.Duration
	doer    Doer
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Doer overrides the hertz client, mainly for tests.
	Doer Doer
}

var _ ports.SessionGateway = (*Gateway)(nil)

func New(opts Options) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote gateway: base url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	doer := opts.Doer
	if doer == nil {
		c, err := client.NewClient(client.WithDialTimeout(timeout))
		if err != nil {
			return nil, fmt.Errorf("remote gateway: new client: %w", err)
		}
		doer = c
	}
	return &Gateway{baseURL: base, timeout: timeout, doer: doer}, nil
}

func (g *Gateway) LoadSession(ctx context.Context, id ports.Identity) (farm.Snapshot, error) {
	var out httpadapter.LoadResponse
	if err := g.post(ctx, id, "/api/ledger/session/load", nil, &out); err != nil {
		return farm.Snapshot{}, err
	}
	return out.Snapshot, nil
}

func (g *Gateway) Autosave(ctx context.Context, id ports.Identity, actions []farm.LoggedAction) (ports.AutosaveReceipt, error) {
	var out httpadapter.AutosaveResponse
	if err := g.post(ctx, id, "/api/ledger/session/autosave", httpadapter.AutosaveRequest{Actions: actions}, &out); err != nil {
		return ports.AutosaveReceipt{}, err
	}
	return out.Receipt, nil
}

func (g *Gateway) Mint(ctx context.Context, id ports.Identity, req ports.MintRequest) error {
	return g.post(ctx, id, "/api/ledger/session/mint", req, nil)
}

func (g *Gateway) Sync(ctx context.Context, id ports.Identity) error {
	return g.post(ctx, id, "/api/ledger/session/sync", nil, nil)
}

func (g *Gateway) Withdraw(ctx context.Context, id ports.Identity, req ports.WithdrawRequest) error {
	return g.post(ctx, id, "/api/ledger/session/withdraw", req, nil)
}

func (g *Gateway) post(ctx context.Context, id ports.Identity, path string, body, out any) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(g.baseURL + path)
	req.Header.Set(httpadapter.FarmIDHeader, strconv.FormatInt(id.FarmID, 10))
	req.Header.Set(httpadapter.SessionIDHeader, id.SessionID)
	if id.Signature != "" {
		req.Header.Set(httpadapter.SignatureHeader, id.Signature)
	}
	if id.Sender != "" {
		req.Header.Set(httpadapter.SenderHeader, id.Sender)
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(b)
	}

	if err := g.doer.DoTimeout(ctx, req, resp, g.timeout); err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return decodeError(path, status, resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError maps ledger error codes back onto the port sentinels.
func decodeError(path string, status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	var sentinel error
	switch eb.Error.Code {
	case httpadapter.CodeNotFound:
		sentinel = ports.ErrNotFound
	case httpadapter.CodeConflict:
		sentinel = ports.ErrConflict
	case httpadapter.CodeRejected:
		sentinel = ports.ErrRejected
	case httpadapter.CodeUnregisteredAction:
		sentinel = farm.ErrUnregisteredAction
	default:
		switch {
		case status == consts.StatusNotFound:
			sentinel = ports.ErrNotFound
		case status >= 400 && status < 500:
			sentinel = ErrBadRequest
		default:
			return fmt.Errorf("post %s: status %d: %s", path, status, msg)
		}
	}
	return fmt.Errorf("post %s: %w: %s", path, sentinel, msg)
}
