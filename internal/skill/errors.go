package skill

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSkill indicates a skill name no scan has produced.
	ErrUnknownSkill = errors.New("unknown skill")

	// ErrCoreSkill indicates an attempt to deactivate an always-on skill.
	ErrCoreSkill = errors.New("core skill cannot be deactivated")
)

// ConflictError blocks activation of a skill whose declared conflict is
// currently active.
type ConflictError struct {
	Skill    string
	Conflict string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("skill %q conflicts with active skill %q", e.Skill, e.Conflict)
}
