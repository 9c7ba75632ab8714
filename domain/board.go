package domain

import "slices"

// EventDraft holds the user supplied fields of an event before an id is assigned.
type EventDraft struct {
	Title       string
	Date        string
	Time        string
	Location    string
	Description string
}

// Event is an entry of the shared board.
// RSVPs is a set of user ids: an attendee appears at most once, order is irrelevant.
type Event struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	CreatedBy   string   `json:"created_by"`
	RSVPs       []string `json:"rsvps"`
}

func NewEvent(id int, draft EventDraft, createdBy string) Event {
	return Event{
		ID:          id,
		Title:       draft.Title,
		Date:        draft.Date,
		Time:        draft.Time,
		Location:    draft.Location,
		Description: draft.Description,
		CreatedBy:   createdBy,
		RSVPs:       []string{},
	}
}

// ToggleRSVP flips the membership of attendee and reports whether
// the attendee is now attending.
func (e *Event) ToggleRSVP(attendee string) bool {
	if i := slices.Index(e.RSVPs, attendee); i >= 0 {
		e.RSVPs = slices.Delete(e.RSVPs, i, i+1)
		return false
	}
	e.RSVPs = append(e.RSVPs, attendee)
	return true
}

func (e Event) IsAttending(attendee string) bool {
	return slices.Contains(e.RSVPs, attendee)
}

// Attendees returns the display names of the RSVPs, in the same order.
func (e Event) Attendees() []string {
	names := make([]string, 0, len(e.RSVPs))
	for _, id := range e.RSVPs {
		names = append(names, DisplayName(id))
	}
	return names
}

// Clone returns a copy that shares no memory with e.
func (e Event) Clone() Event {
	c := e
	c.RSVPs = make([]string, len(e.RSVPs))
	copy(c.RSVPs, e.RSVPs)
	return c
}
