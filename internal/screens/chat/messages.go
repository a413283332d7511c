package chat

import "github.com/abhisek/tutorly/internal/tutor"

// eventMsg carries one event of the running turn.
type eventMsg struct {
	Event tutor.Event
}

// turnDoneMsg is sent once the running turn has returned.
type turnDoneMsg struct {
	Err error
}
