package assistant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/farmdash/internal/domain"
)

// ChatRequest is the JSON body POSTed to the assistant endpoint.
type ChatRequest struct {
	Message    string          `json:"message"`
	History    []domain.Turn   `json:"history"`
	Attachment *AttachmentMeta `json:"attachment,omitempty"`
	Locale     string          `json:"locale,omitempty"`
}

// AttachmentMeta describes an attachment marker. No file content is sent.
type AttachmentMeta struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// ChatResponse is the expected reply body. Timestamp may be a number of
// epoch milliseconds or a string.
type ChatResponse struct {
	Response  *string         `json:"response"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// NewTimestamp encodes t as epoch milliseconds.
func NewTimestamp(t time.Time) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(t.UnixMilli(), 10))
}

// ParseTimestamp decodes an optional timestamp. A nil time with a nil error
// means the field was absent or null.
func ParseTimestamp(raw json.RawMessage) (*time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			return &t, nil
		}
		if ms, err := strconv.ParseFloat(str, 64); err == nil {
			return fromMillis(ms)
		}
		return nil, fmt.Errorf("unrecognized timestamp %q", str)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("unrecognized timestamp %s", s)
	}
	return fromMillis(ms)
}

// maxMillis bounds epoch milliseconds to the ECMAScript Date range.
const maxMillis = 8.64e15

func fromMillis(ms float64) (*time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxMillis {
		return nil, fmt.Errorf("timestamp %v out of range", ms)
	}
	t := time.UnixMilli(int64(ms))
	return &t, nil
}
