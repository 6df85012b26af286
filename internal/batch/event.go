package batch

import (
	"github.com/stroud/video-downloader"
)

// Item is one line of the URL file.
type Item struct {
	// Number is the zero-padded, 1-indexed line number.
	Number string
	Index  int
	Total  int
	Line   string
	URL    string
}

type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
}

type Event interface {
	// The Item this event relates to (nil if not an Item-specific event).
	Item() *Item
}

type itemEvent struct {
	item *Item
}

func (e itemEvent) Item() *Item {
	return e.item
}

type BatchStarted struct {
	URLFile string
	Total   int
}

func (BatchStarted) Item() *Item { return nil }

type BatchFinished struct {
	Summary Summary
	// Err is set if the batch was stopped before every line was processed.
	Err error
}

func (BatchFinished) Item() *Item { return nil }

type ItemStarted struct {
	itemEvent
	ProviderName string
	Info         video_downloader.SourceInfo
	Filename     string
	// DisplayName is the sanitized title and extension, without the line number prefix.
	DisplayName string
}

type ItemProgress struct {
	itemEvent
	Downloaded int64
	Expected   int64
}

type ItemCompleted struct {
	itemEvent
	Path string
}

type ItemSkipped struct {
	itemEvent
	Reason string
}

type ItemFailed struct {
	itemEvent
	Err error
}

// A Reporter receives events synchronously from the Runner, in order.
type Reporter interface {
	Report(Event)
}

type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) {
	f(e)
}
