package farm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnregisteredAction = errors.New("unregistered action type")

type ActionType string

const (
	ActionCraft   ActionType = "item.crafted"
	ActionSell    ActionType = "item.sell"
	ActionPlant   ActionType = "item.planted"
	ActionHarvest ActionType = "item.harvested"
)

// Action is a closed set of player intents. Only the types declared in this
// package satisfy it.
type Action interface {
	Type() ActionType
	isAction()
}

type CraftAction struct {
	Item   ItemName `json:"item"`
	Amount int64    `json:"amount"`
}

type SellAction struct {
	Item   ItemName `json:"item"`
	Amount int64    `json:"amount"`
}

type PlantAction struct {
	Index     int       `json:"index"`
	Item      ItemName  `json:"item"`
	PlantedAt time.Time `json:"planted_at"`
}

type HarvestAction struct {
	Index       int       `json:"index"`
	HarvestedAt time.Time `json:"harvested_at"`
}

func (CraftAction) Type() ActionType   { return ActionCraft }
func (SellAction) Type() ActionType    { return ActionSell }
func (PlantAction) Type() ActionType   { return ActionPlant }
func (HarvestAction) Type() ActionType { return ActionHarvest }

func (CraftAction) isAction()   {}
func (SellAction) isAction()    {}
func (PlantAction) isAction()   {}
func (HarvestAction) isAction() {}

func RegisteredActionTypes() []ActionType {
	return []ActionType{ActionCraft, ActionSell, ActionPlant, ActionHarvest}
}

func IsRegistered(t ActionType) bool {
	for _, registered := range RegisteredActionTypes() {
		if t == registered {
			return true
		}
	}
	return false
}

// StampAt fills in the acceptance time on actions that carry one and left it
// unset. Other actions are returned as is.
func StampAt(a Action, at time.Time) Action {
	switch v := a.(type) {
	case PlantAction:
		if v.PlantedAt.IsZero() {
			v.PlantedAt = at
		}
		return v
	case HarvestAction:
		if v.HarvestedAt.IsZero() {
			v.HarvestedAt = at
		}
		return v
	default:
		return a
	}
}

type envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, ErrUnregisteredAction
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Type(), err)
	}
	return json.Marshal(envelope{Type: a.Type(), Payload: payload})
}

func DecodeAction(b []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return decodePayload(env.Type, env.Payload)
}

func decodePayload(t ActionType, payload json.RawMessage) (Action, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	var (
		out Action
		err error
	)
	switch t {
	case ActionCraft:
		var v CraftAction
		err = json.Unmarshal(payload, &v)
		out = v
	case ActionSell:
		var v SellAction
		err = json.Unmarshal(payload, &v)
		out = v
	case ActionPlant:
		var v PlantAction
		err = json.Unmarshal(payload, &v)
		out = v
	case ActionHarvest:
		var v HarvestAction
		err = json.Unmarshal(payload, &v)
		out = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredAction, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return out, nil
}

// LoggedAction is an accepted action waiting for remote confirmation.
type LoggedAction struct {
	ID        string
	Action    Action
	CreatedAt time.Time
}

type loggedActionJSON struct {
	ID        string          `json:"id"`
	Type      ActionType      `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func (l LoggedAction) MarshalJSON() ([]byte, error) {
	if l.Action == nil {
		return nil, ErrUnregisteredAction
	}
	payload, err := json.Marshal(l.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(loggedActionJSON{
		ID:        l.ID,
		Type:      l.Action.Type(),
		Payload:   payload,
		CreatedAt: l.CreatedAt,
	})
}

func (l *LoggedAction) UnmarshalJSON(b []byte) error {
	var raw loggedActionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a, err := decodePayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}
	*l = LoggedAction{ID: raw.ID, Action: a, CreatedAt: raw.CreatedAt}
	return nil
}
