package blockmatch

import "slices"

// Status is the lifecycle of a game.
type Status string

const (
	StatusMenu     Status = "menu"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "gameover"
)

// Mode selects what pushes new rows into the grid.
type Mode string

const (
	// ModeClassic adds a row after every successful match.
	ModeClassic Mode = "classic"
	// ModeTime adds a row whenever the round timer runs out.
	ModeTime Mode = "time"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeClassic || m == ModeTime
}

const (
	TimeModeStart  = 30 // seconds on the clock when a time game starts
	PenaltyTime    = 15 // seconds granted after the clock runs out
	MatchBonus     = 10 // seconds added per match in time mode
	MaxTime        = 60
	PointsPerBlock = 10
	menuTimeLeft   = 60
)

// State is the whole block-match game. Transitions return a new State and
// never modify the receiver's slices.
type State struct {
	Grid     []Block `json:"grid"`
	Target   int     `json:"targetNumber"`
	Score    int     `json:"score"`
	Status   Status  `json:"status"`
	Mode     Mode    `json:"mode"`
	Selected []int   `json:"selectedBlockIds"`
	TimeLeft int     `json:"timeLeft"`
	Level    int     `json:"level"`
	NextID   int     `json:"nextId"`
}

// NewState returns the menu state shown before the first game.
func NewState() State {
	return State{
		Grid:     []Block{},
		Status:   StatusMenu,
		Mode:     ModeClassic,
		Selected: []int{},
		TimeLeft: menuTimeLeft,
		Level:    1,
	}
}

// InitGame starts a fresh game in mode, discarding any previous state.
func InitGame(mode Mode, rng Rand) State {
	s := State{
		Grid:     make([]Block, 0, StartRows*Cols),
		Status:   StatusPlaying,
		Mode:     mode,
		Selected: []int{},
		Level:    1,
	}
	for r := 0; r < StartRows; r++ {
		s.Grid = append(s.Grid, GenerateRow(r, s.NextID, rng)...)
		s.NextID += Cols
	}
	s.Target = PickTarget(s.Grid, rng)
	if mode == ModeTime {
		s.TimeLeft = TimeModeStart
	}
	return s
}

// ClickResult says what a click did.
type ClickResult int

const (
	ClickIgnored ClickResult = iota
	ClickSelected
	ClickDeselected
	ClickMatched
)

func (r ClickResult) String() string {
	switch r {
	case ClickSelected:
		return "selected"
	case ClickDeselected:
		return "deselected"
	case ClickMatched:
		return "matched"
	default:
		return "ignored"
	}
}

// ClickCell toggles the selection of cell id. When the selected values add
// up to the target the cells are cleared, the grid settles and a new target
// is picked. Overshooting the target is allowed; the player deselects.
func (s State) ClickCell(id int, rng Rand) (State, ClickResult) {
	if s.Status != StatusPlaying || s.block(id) == nil {
		return s, ClickIgnored
	}

	result := ClickSelected
	var selected []int
	if slices.Contains(s.Selected, id) {
		result = ClickDeselected
		selected = slices.DeleteFunc(slices.Clone(s.Selected), func(v int) bool { return v == id })
	} else {
		selected = append(slices.Clone(s.Selected), id)
	}

	sum := 0
	for _, sid := range selected {
		sum += s.block(sid).Value
	}
	if len(selected) == 0 || sum != s.Target {
		s.Selected = selected
		return s, result
	}
	return s.match(selected, rng), ClickMatched
}

func (s State) match(selected []int, rng Rand) State {
	remaining := make([]Block, 0, len(s.Grid))
	for _, b := range s.Grid {
		if !slices.Contains(selected, b.ID) {
			remaining = append(remaining, b)
		}
	}
	s.Grid = Gravity(remaining)
	s.Score += len(selected) * PointsPerBlock * s.Level
	s.Selected = []int{}

	switch s.Mode {
	case ModeClassic:
		s = s.Escalate(rng)
		s.TimeLeft = 0
	case ModeTime:
		s.TimeLeft = min(s.TimeLeft+MatchBonus, MaxTime)
	}
	s.Target = PickTarget(s.Grid, rng)
	return s
}

// Escalate pushes every cell up one row and fills row 0 with a new row.
// A cell reaching Rows ends the game.
func (s State) Escalate(rng Rand) State {
	shifted, overflow := shiftUp(s.Grid)
	s.Grid = append(shifted, GenerateRow(0, s.NextID, rng)...)
	s.NextID += Cols
	if overflow {
		s.Status = StatusGameOver
	}
	return s
}

// Tick advances the round clock by one second in time mode. When the
// clock runs out a row is forced in without scoring and the round restarts
// on a penalty clock. If the push would overflow, the game ends with the
// board left as it was.
func (s State) Tick(rng Rand) (State, bool) {
	if s.Status != StatusPlaying || s.Mode != ModeTime {
		return s, false
	}
	if s.TimeLeft > 1 {
		s.TimeLeft--
		return s, true
	}
	if _, overflow := shiftUp(s.Grid); overflow {
		s.Status = StatusGameOver
		s.TimeLeft = 0
		return s, true
	}
	s = s.Escalate(rng)
	s.Selected = []int{}
	s.Target = PickTarget(s.Grid, rng)
	s.TimeLeft = PenaltyTime
	return s, true
}

// SelectedSum is the total of the currently selected cells.
func (s State) SelectedSum() int {
	sum := 0
	for _, id := range s.Selected {
		if b := s.block(id); b != nil {
			sum += b.Value
		}
	}
	return sum
}

// At returns the cell at (row, col).
func (s State) At(row, col int) (Block, bool) {
	for _, b := range s.Grid {
		if b.Row == row && b.Col == col {
			return b, true
		}
	}
	return Block{}, false
}

func (s State) block(id int) *Block {
	for i := range s.Grid {
		if s.Grid[i].ID == id {
			return &s.Grid[i]
		}
	}
	return nil
}
