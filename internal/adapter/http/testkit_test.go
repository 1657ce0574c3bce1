package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"farmsession/internal/adapter/repo/memory"
	"farmsession/internal/app/ledger"
	"farmsession/internal/app/ports"
	"farmsession/internal/app/replay"
	"farmsession/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
)

var seededIdentity = ports.Identity{FarmID: 21, SessionID: "session-21", Signature: "sig", Sender: "0xfarmer"}

func newLedger(t *testing.T) (ledger.UseCase, replay.UseCase) {
	t.Helper()
	store := memory.NewStore()
	uc := ledger.UseCase{
		TxManager: memory.NewTxManager(store),
		Farms:     memory.NewFarmRepo(store),
		Actions:   memory.NewActionRepo(store),
		Entries:   memory.NewLedgerRepo(store),
		Now:       func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}
	seed := farm.Snapshot{
		Balance:   farm.NewQuantity(50),
		Fields:    farm.Fields{},
		Inventory: farm.Inventory{"Sunflower": farm.NewQuantity(4)},
		Stock:     farm.InitialStock(),
	}
	if err := uc.Seed(context.Background(), seededIdentity, seed); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	return uc, replay.UseCase{Actions: uc.Actions}
}

func identityHeaders(id ports.Identity) []ut.Header {
	return []ut.Header{
		{Key: FarmIDHeader, Value: strconv.FormatInt(id.FarmID, 10)},
		{Key: SessionIDHeader, Value: id.SessionID},
		{Key: SignatureHeader, Value: id.Signature},
		{Key: SenderHeader, Value: id.Sender},
		{Key: "Content-Type", Value: "application/json"},
	}
}

func perform(s *server.Hertz, method, path, body string, headers ...ut.Header) *protocol.Response {
	w := ut.PerformRequest(s.Engine, method, path, &ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}, headers...)
	return w.Result()
}

func decodeBody(t *testing.T, resp *protocol.Response, out any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		t.Fatalf("unmarshal response %q: %v", resp.Body(), err)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func requireErrorCode(t *testing.T, resp *protocol.Response, status int, code string) {
	t.Helper()
	if got := resp.StatusCode(); got != status {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", got, status, resp.Body())
	}
	var body errorBody
	decodeBody(t, resp, &body)
	if body.Error.Code != code {
		t.Fatalf("error code mismatch: got=%q want=%q", body.Error.Code, code)
	}
}
