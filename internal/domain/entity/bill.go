package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Bill is an expense bill as held by the store
type Bill struct {
	ID         string     `json:"id,omitempty"`
	Email      string     `json:"email"`
	Type       string     `json:"type"`
	Name       string     `json:"name"`
	Date       string     `json:"date"` // YYYY-MM-DD when stored
	Amount     int        `json:"amount"`
	VAT        FlexString `json:"vat"`
	Pct        int        `json:"pct"`
	Commentary string     `json:"commentary"`
	FileURL    string     `json:"fileUrl"`
	FileName   string     `json:"fileName"`
	Status     string     `json:"status"`
}

// DisplayBill is a Bill whose date and status went through display formatting.
// All other fields are carried over unchanged.
type DisplayBill Bill

// IsKnownStatus reports whether status is one of the canonical bill statuses
func IsKnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// FlexString accepts either a JSON string or a JSON number and keeps its text.
// Stores have been seen to send vat both ways.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the raw text
func (s FlexString) String() string {
	return string(s)
}

// Float parses the value as a float. ok is false for blank or non-numeric text.
func (s FlexString) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
