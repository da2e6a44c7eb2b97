// Package export writes a room's feedback for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("export: unknown format")

var csvHeader = []string{"student_id", "rating", "message", "timestamp", "sent_at"}

func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, v)
	}
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Filename is the suggested download name, e.g. feedhub-482913.csv.
func (f Format) Filename(pin string) string {
	return "feedhub-" + pin + "." + string(f)
}

func Write(w io.Writer, f Format, pin string, list []models.Feedback) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, list)
	case FormatJSON:
		return WriteJSON(w, pin, list)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteCSV writes one row per feedback. sent_at is the timestamp in UTC.
func WriteCSV(w io.Writer, list []models.Feedback) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range list {
		row := []string{
			f.StudentID,
			strconv.Itoa(f.Rating),
			f.Message,
			strconv.FormatInt(f.Timestamp, 10),
			time.UnixMilli(f.Timestamp).UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type document struct {
	PIN       string            `json:"pin"`
	Total     int               `json:"total"`
	Feedbacks []models.Feedback `json:"feedbacks"`
}

func WriteJSON(w io.Writer, pin string, list []models.Feedback) error {
	if list == nil {
		list = []models.Feedback{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{PIN: pin, Total: len(list), Feedbacks: list})
}
