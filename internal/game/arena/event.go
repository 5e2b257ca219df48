package arena

import "time"

// EventDetails carries the numeric outcome of an action. Fields are nil
// for action types they do not apply to, so a movement event still shows
// the same shape as an attack event in the log.
type EventDetails struct {
	AttackRoll  *int  `json:"attack_roll"`
	Hit         *bool `json:"hit"`
	DamageDealt *int  `json:"damage_dealt"`
}

// Event is one entry in a game's combat log.
type Event struct {
	Round       int          `json:"round"`
	CharacterID string       `json:"character_id"`
	ActionType  string       `json:"action_type"`
	Description string       `json:"description"`
	Details     EventDetails `json:"details"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Clone returns a copy of the event with no shared detail pointers.
func (e Event) Clone() Event {
	out := e
	if e.Details.AttackRoll != nil {
		v := *e.Details.AttackRoll
		out.Details.AttackRoll = &v
	}
	if e.Details.Hit != nil {
		v := *e.Details.Hit
		out.Details.Hit = &v
	}
	if e.Details.DamageDealt != nil {
		v := *e.Details.DamageDealt
		out.Details.DamageDealt = &v
	}
	return out
}

func cloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
