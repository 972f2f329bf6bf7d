package triage

import (
	"fmt"
	"time"
)

// Step is one of the six wizard states.
type Step int

const (
	StepClarify Step = iota + 1
	StepActionRequired
	StepMultiStep
	StepTwoMinute
	StepDelegate
	StepSchedule
)

func (s Step) IsValid() bool {
	return s >= StepClarify && s <= StepSchedule
}

func (s Step) String() string {
	switch s {
	case StepClarify:
		return "clarify"
	case StepActionRequired:
		return "action-required"
	case StepMultiStep:
		return "multi-step"
	case StepTwoMinute:
		return "two-minute"
	case StepDelegate:
		return "delegate"
	case StepSchedule:
		return "schedule"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Question is the prompt shown for a step.
func (s Step) Question() string {
	switch s {
	case StepClarify:
		return "What is it? Confirm or edit the title and description."
	case StepActionRequired:
		return "Is action required?"
	case StepMultiStep:
		return "Does it take more than one step?"
	case StepTwoMinute:
		return "Can it be done in two minutes or less?"
	case StepDelegate:
		return "Can someone else do it?"
	case StepSchedule:
		return "Does it have to happen on a specific date?"
	default:
		return ""
	}
}

// Decision is the answer to one step. Each step accepts exactly one concrete
// type, so a step 5 answer cannot be handed to step 3.
type Decision interface {
	Step() Step
}

// Clarify answers step 1. Non-nil fields are saved to the task before the
// session advances.
type Clarify struct {
	Title       *string
	Description *string
}

// Disposition says where a non-actionable item goes.
type Disposition string

const (
	DispositionReference Disposition = "reference"
	DispositionSomeday   Disposition = "someday"
	DispositionTrash     Disposition = "trash"
)

func (d Disposition) IsValid() bool {
	switch d {
	case DispositionReference, DispositionSomeday, DispositionTrash:
		return true
	}
	return false
}

// ActionRequired answers step 2. When Actionable is false, Else picks the
// non-actionable bucket.
type ActionRequired struct {
	Actionable bool
	Else       Disposition
}

// MultiStep answers step 3.
type MultiStep struct {
	Yes bool
}

// TwoMinute answers step 4. TimeEstimate (minutes) is kept when the answer is no.
type TwoMinute struct {
	Yes          bool
	TimeEstimate int
}

// Delegate answers step 5. Person is who the task waits on.
type Delegate struct {
	Yes    bool
	Person string
}

// Schedule answers step 6.
type Schedule struct {
	Yes  bool
	Date time.Time
}

func (Clarify) Step() Step        { return StepClarify }
func (ActionRequired) Step() Step { return StepActionRequired }
func (MultiStep) Step() Step      { return StepMultiStep }
func (TwoMinute) Step() Step      { return StepTwoMinute }
func (Delegate) Step() Step       { return StepDelegate }
func (Schedule) Step() Step       { return StepSchedule }
