package repositories

import (
	"companion-hub/domain"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mama165/sdk-go/database"
)

// JournalMapper renders journal entries in the badger debug inspector.
func JournalMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	switch {
	case strings.HasPrefix(key, messagePrefix):
		var dm DiskMessage
		if err := json.Unmarshal(val, &dm); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("[%s] %s: %s", dm.At.Format(time.DateTime), dm.Sender, dm.Content)
	case strings.HasPrefix(key, eventPrefix):
		var evt domain.Event
		if err := json.Unmarshal(val, &evt); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "EVENT"
		row.Detail = fmt.Sprintf("#%d %s (%d rsvp)", evt.ID, evt.Title, len(evt.RSVPs))
	}
	return row
}
