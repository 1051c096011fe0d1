package amqp

import (
	"encoding/json"
	"time"
)

// ReportSentMessage announces that a weekly report was generated and mailed.
// It carries the window and totals, not the rows; consumers that want the
// detail can rebuild the report from the database.
type ReportSentMessage struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	EntryCount  int       `json:"entry_count"`
	SentAt      time.Time `json:"sent_at"`
}

func NewReportSentMessage(windowStart, windowEnd time.Time, entryCount int) *ReportSentMessage {
	return &ReportSentMessage{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		EntryCount:  entryCount,
		SentAt:      time.Now(),
	}
}

func (m *ReportSentMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportSentMessageFromJSON(data []byte) (*ReportSentMessage, error) {
	var msg ReportSentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
