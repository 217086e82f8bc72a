// Package response shapes parse results into the JSON returned to clients.
package response

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"visaocr/pkg/models"
)

// Error codes returned in rejected responses.
const (
	CodeNoFile               = "NO_FILE"
	CodeInvalidFileType      = "INVALID_FILE_TYPE"
	CodeEmptyFile            = "EMPTY_FILE"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeInvalidImage         = "INVALID_IMAGE"
	CodeImageProcessingError = "IMAGE_PROCESSING_ERROR"
	CodeInvalidScreenshot    = "INVALID_SCREENSHOT"
	CodeRateLimited          = "RATE_LIMITED"
)

// MessageInvalidScreenshot is the user-facing text for CodeInvalidScreenshot.
const MessageInvalidScreenshot = "Please upload a valid visa appointment screenshot"

const isoDate = "2006-01-02"

// Response is the top-level body of every OCR answer.
type Response struct {
	Success   bool      `json:"success"`
	ErrorCode string    `json:"error_code,omitempty"`
	Message   string    `json:"message,omitempty"`
	RawText   string    `json:"raw_text,omitempty"`
	FormData  *FormData `json:"form_data,omitempty"`
}

// FormData is the form pre-fill payload.
type FormData struct {
	VisaType              *string    `json:"visa_type"`
	Consulate             *string    `json:"consulate"`
	EarliestAvailableDate *string    `json:"earliest_available_date"`
	AvailableSlots        []SlotView `json:"available_slots"`
	TotalSlots            *int       `json:"total_slots"`
	Meta                  MetaView   `json:"meta"`
}

type SlotView struct {
	Date    *string `json:"date"`
	Time    *string `json:"time"`
	Count   *int    `json:"count"`
	Display string  `json:"display"`
	Source  string  `json:"source"`
}

type MetaView struct {
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Note       *string  `json:"note"`
}

// consulates maps upper-cased OCR location text to display names.
var consulates = map[string]string{
	"HYDERABAD IW": "Hyderabad",
	"DELHI":        "Delhi",
	"MUMBAI":       "Mumbai",
	"CHENNAI":      "Chennai",
	"KOLKATA":      "Kolkata",
}

// NormalizeConsulate canonicalizes an extracted location. Unknown names are
// title-cased; an empty location stays absent.
func NormalizeConsulate(raw string) *string {
	if raw == "" {
		return nil
	}
	name, ok := consulates[strings.ToUpper(raw)]
	if !ok {
		// A Caser keeps state between calls, so each call gets its own.
		name = cases.Title(language.English).String(raw)
	}
	return &name
}

// Build wraps a successful parse. rawText is echoed back so clients can show what
// the engine read.
func Build(rawText string, res *models.ParseResult) *Response {
	return &Response{
		Success:  true,
		RawText:  rawText,
		FormData: formData(res),
	}
}

// Reject builds a failed response carrying an error code.
func Reject(code, message string) *Response {
	return &Response{ErrorCode: code, Message: message}
}

// InvalidScreenshot is the rejection for pages the validator does not recognise.
func InvalidScreenshot() *Response {
	return Reject(CodeInvalidScreenshot, MessageInvalidScreenshot)
}

func formData(res *models.ParseResult) *FormData {
	if res == nil {
		res = &models.ParseResult{}
	}

	fd := &FormData{
		Consulate:             NormalizeConsulate(res.Location),
		EarliestAvailableDate: formatDate(res.EarliestDate),
		AvailableSlots:        make([]SlotView, 0, len(res.AvailableSlots)),
		TotalSlots:            res.TotalSlots,
		Meta: MetaView{
			Sources:    res.Meta.Sources,
			Confidence: res.Meta.Confidence,
		},
	}
	if fd.Meta.Sources == nil {
		fd.Meta.Sources = []string{}
	}
	if res.Meta.Note != "" {
		note := res.Meta.Note
		fd.Meta.Note = &note
	}

	for _, s := range res.AvailableSlots {
		view := SlotView{
			Date:    formatDate(s.Date),
			Count:   s.Count,
			Display: s.Display,
			Source:  s.Source,
		}
		if s.Time != "" {
			t := s.Time
			view.Time = &t
		}
		fd.AvailableSlots = append(fd.AvailableSlots, view)
	}
	return fd
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(isoDate)
	return &s
}
