package schema

import (
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// State is a state of the upload workflow
type State int

// Action is the exit action chosen by the user when saving
type Action string

// Level is the severity of a user notification
type Level int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	Idle State = iota
	AwaitingToken
	Uploading
	PersistingMetadata
	Finalizing
	Redirecting
	Succeeded
	Failed
)

const (
	// ActionFinish saves the resource and shows the dataset
	ActionFinish Action = "finish"

	// ActionAgain saves the resource and opens a new resource form
	ActionAgain Action = "again"

	// ActionGoDataset returns to the dataset edit page without saving
	ActionGoDataset Action = "go-dataset"
)

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// ParseAction parses an action name; an empty string is ActionFinish
func ParseAction(v string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(v))); a {
	case "", ActionFinish, "save":
		return ActionFinish, nil
	case ActionAgain, ActionGoDataset:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", v)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsTerminal reports whether the workflow can leave this state
func (s State) IsTerminal() bool {
	return s == Succeeded || s == Failed
}

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingToken:
		return "awaiting-token"
	case Uploading:
		return "uploading"
	case PersistingMetadata:
		return "persisting-metadata"
	case Finalizing:
		return "finalizing"
	case Redirecting:
		return "redirecting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}
