package legality

import "github.com/roach88/ultistats/internal/event"

// PlayerActions lists what player (on team) may report next.
//
// Timeouts and calls are skipped when looking for the state-defining event.
// A substitution is skipped too, and if player came on in it, player takes
// over the identity of the outgoing player for everything before it.
func PlayerActions(team event.Team, player string, history []event.Event, pulling bool) []Action {
	if PointOver(history) {
		return []Action{}
	}

	me := player
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if e.Team != team {
			continue
		}
		switch e.Type {
		case event.Timeout, event.CallOnField:
			continue
		case event.Substitution:
			if e.PlayerTwo == me {
				me = e.PlayerOne
			}
			continue
		}
		return afterEvent(team, player, me, e)
	}

	if pulling {
		return []Action{playerAction(event.Pull, player)}
	}
	return []Action{
		playerAction(event.Catch, player),
		playerAction(event.Pickup, player),
		playerAction(event.Drop, player),
	}
}

// afterEvent resolves the state after last. self is the identity used to test
// "am I the actor" (possibly rebound by substitution); player is the name the
// returned actions are attributed to.
func afterEvent(team event.Team, player, self string, last event.Event) []Action {
	score := event.ScoreFor(team)
	switch last.Type {
	case event.Pull, event.Drop, event.Throwaway, event.Stall:
		return []Action{
			playerAction(event.Block, player),
			playerAction(event.Pickup, player),
			scoreAction(score, player),
		}
	case event.Catch, event.Pickup:
		if last.PlayerOne == self {
			return []Action{
				playerAction(event.Throwaway, player),
				playerAction(event.Stall, player),
			}
		}
		return []Action{
			playerAction(event.Catch, player, last.PlayerOne),
			playerAction(event.Drop, player, last.PlayerOne),
			scoreAction(score, player, last.PlayerOne),
		}
	case event.Block:
		return []Action{playerAction(event.Pickup, player)}
	case event.TeamOneScore, event.TeamTwoScore:
		return []Action{}
	case event.Timeout, event.CallOnField, event.Substitution:
		// Filtered by the caller.
		return []Action{}
	default:
		return []Action{}
	}
}

// playerAction attributes typ to player; thrower, when known, is the
// teammate who released the disc.
func playerAction(typ event.ActionType, player string, thrower ...string) Action {
	players := []string{player}
	for _, t := range thrower {
		if t != "" && t != player {
			players = append(players, t)
		}
	}
	return Action{Type: typ, Label: typ.Label(), Players: players}
}

func scoreAction(typ event.ActionType, player string, thrower ...string) Action {
	a := playerAction(typ, player, thrower...)
	a.Label = "Score"
	return a
}
