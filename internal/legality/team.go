package legality

import (
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// TeamActions lists the team-level controls for team.
//
// Nothing is offered until MinTeamActions events exist for the point, nor
// after the point is scored. On offense a team may call a timeout; once it
// has turned the disc over it may instead acknowledge the opponent's score.
func TeamActions(team event.Team, history []event.Event, pulling bool, names Names) []Action {
	if len(history) < MinTeamActions || PointOver(history) {
		return []Action{}
	}

	onOffense := !pulling
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if e.Team != team || !e.Type.IsPossessionDetermining() {
			continue
		}
		onOffense = e.Type.IsPossessionRetaining()
		break
	}

	if onOffense {
		return []Action{
			teamAction(event.Timeout),
			teamAction(event.CallOnField),
			teamAction(event.Substitution),
		}
	}
	opponent := team.Opponent()
	return []Action{
		{
			Type:  event.ScoreFor(opponent),
			Label: fmt.Sprintf("%s scores", names.Of(opponent)),
		},
		teamAction(event.CallOnField),
		teamAction(event.Substitution),
	}
}

func teamAction(typ event.ActionType) Action {
	return Action{Type: typ, Label: typ.Label()}
}
