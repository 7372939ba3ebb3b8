package models

type EventType string

const (
	EventStatus   EventType = "status"
	EventCitation EventType = "citation"
)

// Event is an out-of-band UI message delivered alongside the answer stream.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

type StatusData struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

type CitationMetadata struct {
	DateAccessed string `json:"date_accessed"`
	Source       string `json:"source"`
}

type CitationSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type CitationData struct {
	Document []string           `json:"document"`
	Metadata []CitationMetadata `json:"metadata"`
	Source   CitationSource     `json:"source"`
}

// StatusEvent builds a status event.
func StatusEvent(description string, done bool) Event {
	return Event{Type: EventStatus, Data: StatusData{Description: description, Done: done}}
}
