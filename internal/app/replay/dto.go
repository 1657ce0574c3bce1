package replay

import (
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

type Request struct {
	FarmID int64
	Limit  int
	// ConfirmedFrom and ConfirmedTo are unix seconds; zero leaves the bound
	// open.
	ConfirmedFrom int64
	ConfirmedTo   int64
}

type Response struct {
	Actions []ports.ActionRecord    `json:"actions"`
	Counts  map[farm.ActionType]int `json:"counts"`
}
