package appointments

import "github.com/clinicdesk/clinic-api/internal/session"

// Action is a lifecycle transition request.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// Target returns the state the action moves an appointment into.
func (a Action) Target() State {
	switch a {
	case ActionAccept:
		return StateAccepted
	case ActionReject:
		return StateRejected
	case ActionCancel:
		return StateCancelled
	case ActionComplete:
		return StateCompleted
	}
	return ""
}

// roleActions lists which actions each role may ever attempt. Admins inherit
// the practitioner's actions.
var roleActions = map[session.Role]map[Action]bool{
	session.RolePatient: {
		ActionCancel: true,
	},
	session.RolePractitioner: {
		ActionAccept:   true,
		ActionReject:   true,
		ActionCancel:   true,
		ActionComplete: true,
	},
	session.RoleAdmin: {
		ActionAccept:   true,
		ActionReject:   true,
		ActionCancel:   true,
		ActionComplete: true,
	},
}

// legalSources lists the states an action may depart from.
var legalSources = map[Action]map[State]bool{
	ActionAccept:   {StateRequested: true},
	ActionReject:   {StateRequested: true},
	ActionCancel:   {StateRequested: true, StateAccepted: true},
	ActionComplete: {StateAccepted: true},
}

// CheckTransition gates one transition attempt. A role that may never perform
// the action gets ErrForbidden; a legal role acting from the wrong state gets
// IllegalTransitionError. Illegal attempts always fail loudly, never no-op.
func CheckTransition(role session.Role, action Action, from State) error {
	if !roleActions[role][action] {
		return ErrForbidden
	}
	if !legalSources[action][from] {
		return &IllegalTransitionError{Action: action, From: from}
	}
	return nil
}
