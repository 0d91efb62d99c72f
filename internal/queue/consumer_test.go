package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() BookingEvent {
	return BookingEvent{
		Type:         EventRejected,
		BookingID:    42,
		RequesterID:  7,
		ActorID:      1,
		ResourceID:   "LIB-A",
		ResourceName: "Library Room A",
		Date:         "2025-09-20",
		Slot:         "10:00 AM - 11:00 AM",
		Status:       "rejected",
		Note:         "room closed",
		OccurredAt:   time.Date(2025, 9, 19, 8, 30, 0, 0, time.UTC),
	}
}

func TestFormatLine(t *testing.T) {
	got := FormatLine(sampleEvent())
	want := `[2025-09-19T08:30:00Z] booking.rejected | booking_id=42 | requester_id=7 | resource="Library Room A (LIB-A)" | date=2025-09-20 | slot="10:00 AM - 11:00 AM" | status=rejected | actor_id=1 | note="room closed"` + "\n"
	assert.Equal(t, want, got)
}

func TestFormatLine_OmitsEmptyParts(t *testing.T) {
	ev := sampleEvent()
	ev.ResourceName = ""
	ev.Note = ""
	ev.ActorID = ev.RequesterID
	got := FormatLine(ev)
	assert.Contains(t, got, `resource="LIB-A"`)
	assert.NotContains(t, got, "note=")
	assert.NotContains(t, got, "actor_id=")
}

func TestAppendEvent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, AppendEvent(dir, sampleEvent()))
	require.NoError(t, AppendEvent(dir, sampleEvent()))

	data, err := os.ReadFile(filepath.Join(dir, BookingLogFile))
	require.NoError(t, err)
	line := FormatLine(sampleEvent())
	assert.Equal(t, line+line, string(data))
}

func TestHandleMessage_RejectsGarbage(t *testing.T) {
	c := &Consumer{Dir: t.TempDir(), Logger: log.New("test")}
	assert.Error(t, c.handleMessage([]byte("{not json")))
	assert.NoError(t, c.handleMessage([]byte(`{"type":"booking.requested","booking_id":1,"date":"2025-09-20"}`)))
}
