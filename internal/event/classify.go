package event

// IsScore reports whether a ends the point.
func (a ActionType) IsScore() bool {
	switch a {
	case TeamOneScore, TeamTwoScore:
		return true
	case Pull, Catch, Drop, Throwaway, Block, Pickup, Timeout, Substitution, CallOnField, Stall:
		return false
	default:
		return false
	}
}

// IsTurnover reports whether a hands the disc to the other team.
// Pull counts: it surrenders possession to the receiving team.
func (a ActionType) IsTurnover() bool {
	switch a {
	case Pull, Drop, Throwaway, Stall:
		return true
	case Catch, Block, Pickup, TeamOneScore, TeamTwoScore, Timeout, Substitution, CallOnField:
		return false
	default:
		return false
	}
}

// IsPossessionRetaining reports whether a leaves the reporting team in
// possession.
func (a ActionType) IsPossessionRetaining() bool {
	switch a {
	case Catch, Pickup, Block:
		return true
	case Pull, Drop, Throwaway, Stall, TeamOneScore, TeamTwoScore, Timeout, Substitution, CallOnField:
		return false
	default:
		return false
	}
}

// IsAdministrative reports whether a is a team-level bookkeeping action that
// never changes possession.
func (a ActionType) IsAdministrative() bool {
	switch a {
	case Timeout, CallOnField, Substitution:
		return true
	case Pull, Catch, Drop, Throwaway, Block, Pickup, TeamOneScore, TeamTwoScore, Stall:
		return false
	default:
		return false
	}
}

// IsInitiating reports whether a can open a possession without a preceding
// pull or turnover being recorded.
func (a ActionType) IsInitiating() bool {
	return a == Catch || a == Pickup
}

// IsPossessionDetermining is the complement of IsAdministrative over valid
// action types.
func (a ActionType) IsPossessionDetermining() bool {
	return a.Valid() && !a.IsAdministrative()
}

// RequiresPlayer reports whether a must name a primary actor.
func (a ActionType) RequiresPlayer() bool {
	switch a {
	case Pull, Catch, Drop, Throwaway, Block, Pickup, Stall, Substitution:
		return true
	case TeamOneScore, TeamTwoScore, Timeout, CallOnField:
		return false
	default:
		return false
	}
}

// Label is the human-facing name of a.
func (a ActionType) Label() string {
	switch a {
	case Pull:
		return "Pull"
	case Catch:
		return "Catch"
	case Drop:
		return "Drop"
	case Throwaway:
		return "Throwaway"
	case Block:
		return "Block"
	case Pickup:
		return "Pickup"
	case TeamOneScore:
		return "Team One scores"
	case TeamTwoScore:
		return "Team Two scores"
	case Timeout:
		return "Timeout"
	case Substitution:
		return "Substitution"
	case CallOnField:
		return "Call on field"
	case Stall:
		return "Stall"
	default:
		return a.String()
	}
}

// ScoreFor returns the scoring action credited to t.
func ScoreFor(t Team) ActionType {
	if t == TeamTwo {
		return TeamTwoScore
	}
	return TeamOneScore
}

// Scorer returns the team credited by a scoring action.
func (a ActionType) Scorer() (Team, bool) {
	switch a {
	case TeamOneScore:
		return TeamOne, true
	case TeamTwoScore:
		return TeamTwo, true
	default:
		return 0, false
	}
}
