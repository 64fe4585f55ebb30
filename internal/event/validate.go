package event

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ValidationErrorCode categorizes malformed events.
type ValidationErrorCode string

const (
	ErrCodeInvalidTeam    ValidationErrorCode = "INVALID_TEAM"
	ErrCodeUnknownAction  ValidationErrorCode = "UNKNOWN_ACTION"
	ErrCodeInvalidSeq     ValidationErrorCode = "INVALID_SEQ"
	ErrCodeMissingPlayer  ValidationErrorCode = "MISSING_PLAYER"
	ErrCodeInvalidComment ValidationErrorCode = "INVALID_COMMENT"
)

// ValidationError reports a malformed event or intent. It is raised at the
// boundary; a rejected event is never partially applied.
type ValidationError struct {
	Code    ValidationErrorCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the structural rules of an intent.
func (in Intent) Validate() error {
	return validateShape(in.Team, in.Type, in.PlayerOne, in.PlayerTwo)
}

// Validate checks the structural rules of a committed event.
func (e Event) Validate() error {
	if err := validateShape(e.Team, e.Type, e.PlayerOne, e.PlayerTwo); err != nil {
		return err
	}
	if e.Seq <= 0 {
		return &ValidationError{
			Code:    ErrCodeInvalidSeq,
			Field:   "seq",
			Message: fmt.Sprintf("sequence number must be positive, got %d", e.Seq),
		}
	}
	seen := make(map[int64]bool, len(e.Comments))
	for i, c := range e.Comments {
		if c.Seq <= 0 || seen[c.Seq] {
			return &ValidationError{
				Code:    ErrCodeInvalidComment,
				Field:   fmt.Sprintf("comments[%d].seq", i),
				Message: fmt.Sprintf("comment sequence %d is not positive or repeats", c.Seq),
			}
		}
		seen[c.Seq] = true
	}
	return nil
}

func validateShape(team Team, typ ActionType, playerOne, playerTwo string) error {
	if !team.Valid() {
		return &ValidationError{
			Code:    ErrCodeInvalidTeam,
			Field:   "team",
			Message: fmt.Sprintf("team must be one or two, got %d", int(team)),
		}
	}
	if !typ.Valid() {
		return &ValidationError{
			Code:    ErrCodeUnknownAction,
			Field:   "action",
			Message: fmt.Sprintf("action type %d is not in the closed set", int(typ)),
		}
	}
	if typ.RequiresPlayer() && strings.TrimSpace(playerOne) == "" {
		return &ValidationError{
			Code:    ErrCodeMissingPlayer,
			Field:   "player_one",
			Message: fmt.Sprintf("%s requires a primary player", typ),
		}
	}
	if typ == Substitution && strings.TrimSpace(playerTwo) == "" {
		return &ValidationError{
			Code:    ErrCodeMissingPlayer,
			Field:   "player_two",
			Message: "Substitution requires the incoming player",
		}
	}
	return nil
}

// Normalize returns e with every free-text field NFC-normalized and trimmed,
// and tags sorted and deduplicated.
func (e Event) Normalize() Event {
	out := e.Clone()
	out.PlayerOne = normalizeText(e.PlayerOne)
	out.PlayerTwo = normalizeText(e.PlayerTwo)
	out.Tags = NormalizeTags(e.Tags)
	for i := range out.Comments {
		out.Comments[i].Text = normalizeText(out.Comments[i].Text)
	}
	return out
}

// Normalize applies the same text rules as Event.Normalize.
func (in Intent) Normalize() Intent {
	out := in
	out.PlayerOne = normalizeText(in.PlayerOne)
	out.PlayerTwo = normalizeText(in.PlayerTwo)
	out.Tags = NormalizeTags(in.Tags)
	return out
}

// NormalizeTags treats tags as a set: normalized, sorted, no blanks or
// duplicates. Returns nil for an empty set.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := normalizeText(t); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
