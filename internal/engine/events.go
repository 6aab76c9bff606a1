package engine

// TransitionEvent records one tick crossing between Interior and Boundary.
// Alpha and K are captured at the moment of the transition.
type TransitionEvent struct {
	TickID int64     `json:"tick_id"`
	From   TickState `json:"from"`
	To     TickState `json:"to"`
	Alpha  float64   `json:"alpha"`
	K      float64   `json:"k"`
}
