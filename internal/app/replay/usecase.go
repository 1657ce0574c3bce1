package replay

import (
	"context"
	"errors"

	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

var ErrInvalidRequest = errors.New("invalid replay request")

// UseCase lists the confirmed action history of a farm.
type UseCase struct {
	Actions ports.ActionRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if req.FarmID <= 0 || req.Limit < 0 {
		return Response{}, ErrInvalidRequest
	}
	if req.ConfirmedFrom > 0 && req.ConfirmedTo > 0 && req.ConfirmedFrom > req.ConfirmedTo {
		return Response{}, ErrInvalidRequest
	}
	records, err := u.Actions.ListByFarmID(ctx, req.FarmID, req.Limit)
	if err != nil {
		return Response{}, err
	}
	records = filterByTimeWindow(records, req.ConfirmedFrom, req.ConfirmedTo)
	return Response{Actions: records, Counts: countByType(records)}, nil
}

func filterByTimeWindow(records []ports.ActionRecord, from, to int64) []ports.ActionRecord {
	if from <= 0 && to <= 0 {
		return records
	}
	out := make([]ports.ActionRecord, 0, len(records))
	for _, rec := range records {
		ts := rec.ConfirmedAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func countByType(records []ports.ActionRecord) map[farm.ActionType]int {
	out := make(map[farm.ActionType]int)
	for _, rec := range records {
		if rec.Action.Action == nil {
			continue
		}
		out[rec.Action.Action.Type()]++
	}
	return out
}
