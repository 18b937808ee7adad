package sentmon

// Journaler describes an event logger. Every observable state
// transition of the supervisor goes through a Journaler, so a journal
// is both the audit trail and the user-visible status output.
type Journaler interface {
	Write(Event) error
}
