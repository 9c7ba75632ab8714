package projection

import (
	"companion-hub/client"
	"companion-hub/domain/event"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func frame(name event.Name, data string) client.Frame {
	return client.Frame{Event: name, Data: json.RawMessage(data)}
}

func TestTimeline_Messages(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	// Given a live message followed by a history that already contains it
	req.NoError(timeline.Consume(frame(event.NewMessageName, `{"sender":"User-aaaaaaaa","content":"hi","timestamp":"t1"}`)))
	req.NoError(timeline.Consume(frame(event.MessageHistoryName,
		`[{"sender":"User-bbbbbbbb","content":"hello","timestamp":"t0"},{"sender":"User-aaaaaaaa","content":"hi","timestamp":"t1"}]`)))

	// When another message arrives
	req.NoError(timeline.Consume(frame(event.NewMessageName, `{"sender":"User-bbbbbbbb","content":"bye","timestamp":"t2"}`)))

	// Then each message is kept once, in order
	messages := timeline.Messages()
	req.Len(messages, 3)
	req.Equal("hello", messages[0].Content)
	req.Equal("hi", messages[1].Content)
	req.Equal("bye", messages[2].Content)
}

func TestTimeline_Board(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	req.NoError(timeline.Consume(frame(event.EventHistoryName, `[{"id":2,"title":"Movie","rsvps":[]}]`)))
	req.NoError(timeline.Consume(frame(event.NewEventName, `{"id":1,"title":"Picnic","rsvps":[]}`)))
	req.NoError(timeline.Consume(frame(event.EventUpdatedName, `{"id":2,"title":"Movie","rsvps":["aaaaaaaa-1"],"attendees":["User-aaaaaaaa"]}`)))
	req.NoError(timeline.Consume(frame(event.UserCountName, `{"count":3}`)))

	events := timeline.Events()
	req.Len(events, 2)
	req.Equal("Picnic", events[0].Title)
	req.Equal([]string{"aaaaaaaa-1"}, events[1].RSVPs)
	req.Equal([]string{"User-aaaaaaaa"}, events[1].Attendees)
	req.Equal(3, timeline.Online())
}

func TestTimeline_BadPayload(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	err := timeline.Consume(frame(event.NewEventName, `[]`))

	req.ErrorContains(err, "new_event")
	req.Empty(timeline.Events())
}
