package movement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of the date string the capture form sends (JS Date.toDateString).
const DateLayout = "Mon Jan 02 2006"

var (
	ErrInvalidEvent     = errors.New("invalid movement event")
	ErrStoreUnavailable = errors.New("movement store unavailable")
)

// Event is a single recorded movement observation.
// All fields are stored and returned verbatim, exactly as captured.
type Event struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Intensity string `json:"intensity"`
	Frequency string `json:"frequency"`
	Type      string `json:"type"`
	Position  string `json:"position"`
}

// DayEntry is an event as listed under its date key in the by-day view.
type DayEntry struct {
	Time      string `json:"time"`
	Intensity string `json:"intensity"`
	Type      string `json:"type"`
	Position  string `json:"position"`
}

func (e Event) DayEntry() DayEntry {
	return DayEntry{
		Time:      e.Time,
		Intensity: e.Intensity,
		Type:      e.Type,
		Position:  e.Position,
	}
}

// Validate checks the capture invariants: date and time parseable,
// type and position set to known labels, intensity and frequency known when set.
func (e Event) Validate() error {
	if e.Date == "" || e.Time == "" {
		return fmt.Errorf("%w: date and time are required", ErrInvalidEvent)
	}
	if _, err := ParseDay(e.Date, time.UTC); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if _, err := e.Hour(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if e.Type == "" || e.Position == "" {
		return fmt.Errorf("%w: type and position are required", ErrInvalidEvent)
	}
	if !Type(e.Type).IsValid() {
		return fmt.Errorf("%w: unknown type [%s]", ErrInvalidEvent, e.Type)
	}
	if !Position(e.Position).IsValid() {
		return fmt.Errorf("%w: unknown position [%s]", ErrInvalidEvent, e.Position)
	}
	if e.Intensity != "" && !Intensity(e.Intensity).IsValid() {
		return fmt.Errorf("%w: unknown intensity [%s]", ErrInvalidEvent, e.Intensity)
	}
	if e.Frequency != "" && !Frequency(e.Frequency).IsValid() {
		return fmt.Errorf("%w: unknown frequency [%s]", ErrInvalidEvent, e.Frequency)
	}
	return nil
}

// Hour derives the hour of day (0-23) from the event time.
func (e Event) Hour() (int, error) {
	return ParseHour(e.Time)
}

// ParseDay parses a date string into midnight of that day in loc.
func ParseDay(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date [%s]: %w", date, err)
	}
	return day, nil
}

// ParseHour reads the HH:MM:SS prefix of a time-of-day string, e.g.
// "08:30:00 GMT+0100 (Central European Standard Time)", and returns the hour.
// Leading whitespace is ignored. 24:00:00 is a valid representation of midnight and maps to 0.
func ParseHour(timeOfDay string) (int, error) {
	timeOfDay = strings.TrimSpace(timeOfDay)
	if len(timeOfDay) < 8 {
		return 0, fmt.Errorf("parse time [%s]: too short", timeOfDay)
	}
	parts := strings.Split(timeOfDay[:8], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse time [%s]: expected HH:MM:SS", timeOfDay)
	}

	limits := []int{24, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("parse time [%s]: expected HH:MM:SS", timeOfDay)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("parse time [%s]: invalid component [%s]", timeOfDay, p)
		}
		values[i] = v
	}

	hour := values[0]
	if hour == 24 {
		if values[1] != 0 || values[2] != 0 {
			return 0, fmt.Errorf("parse time [%s]: hour 24 is only valid as 24:00:00", timeOfDay)
		}
		hour = 0
	}
	return hour, nil
}

// Intensity can be one of:
//   - gentle
//   - medium
//   - strong
//   - ouch
type Intensity string

const (
	IntensityGentle Intensity = "gentle"
	IntensityMedium Intensity = "medium"
	IntensityStrong Intensity = "strong"
	IntensityOuch   Intensity = "ouch"
)

func (i Intensity) IsValid() bool {
	switch i {
	case IntensityGentle, IntensityMedium, IntensityStrong, IntensityOuch:
		return true
	default:
		return false
	}
}

type Frequency string

const (
	FrequencyIrregular Frequency = "irregular"
	FrequencyFrequent  Frequency = "frequent"
	FrequencyFrantic   Frequency = "frantic"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyIrregular, FrequencyFrequent, FrequencyFrantic:
		return true
	default:
		return false
	}
}

type Type string

const (
	TypeKick   Type = "kick"
	TypeTwitch Type = "twitch"
	TypeRoll   Type = "roll"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeKick, TypeTwitch, TypeRoll:
		return true
	default:
		return false
	}
}
