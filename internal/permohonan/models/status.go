package models

import (
	"strings"

	dErrors "metrologi/pkg/domain-errors"
)

// Status is the lifecycle status of a service request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusProcessing, StatusApproved, StatusRejected}

// ProcessTargets are the statuses an admin may choose when processing a request.
var ProcessTargets = []Status{StatusProcessing, StatusApproved, StatusRejected}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusApproved, StatusRejected},
	StatusProcessing: {StatusApproved, StatusRejected},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status: "+raw)
	}
	return s, nil
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsProcessTarget reports whether s may be requested by a process action.
func (s Status) IsProcessTarget() bool {
	return s == StatusProcessing || s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether the lifecycle allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
