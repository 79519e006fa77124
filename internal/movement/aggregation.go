package movement

import (
	"math"
	"sort"
	"time"
)

const (
	HeatMapSize    = 90.0
	DefaultColumns = 3
	DefaultRows    = 3

	hoursInDay  = 24
	daysInWeek  = 7
	forwardDays = 8
)

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type HourAverage struct {
	Hour  int     `json:"hour"`
	Count float64 `json:"count"`
}

type HourCount struct {
	Hour      int      `json:"hour"`
	Count     int      `json:"count"`
	Positions []string `json:"positions"`
}

// HeatSector is one cell of the heat map grid. A coordinate belongs to it when
// x1 < x < x2 and y1 < y <= y2.
type HeatSector struct {
	Count int     `json:"count"`
	X1    float64 `json:"x1"`
	X2    float64 `json:"x2"`
	Y1    float64 `json:"y1"`
	Y2    float64 `json:"y2"`
}

// WeekStart returns the start of the reporting week: the day of month of now,
// minus the weekday (Sunday = 0), minus 6 more days, at now's clock time.
// This is a fixed reporting policy, not a calendar week start.
func WeekStart(now time.Time) time.Time {
	return time.Date(
		now.Year(), now.Month(), now.Day()-int(now.Weekday())-6,
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(),
		now.Location(),
	)
}

// ReportingWeek keeps the events dated strictly after WeekStart(now).
// Events with an unparseable date are dropped.
func ReportingWeek(events []Event, now time.Time) []Event {
	weekStart := WeekStart(now)
	inWeek := make([]Event, 0, len(events))
	for _, e := range events {
		day, err := ParseDay(e.Date, now.Location())
		if err != nil {
			continue
		}
		if day.After(weekStart) {
			inWeek = append(inWeek, e)
		}
	}
	return inWeek
}

// ComputeDayCounts counts the reporting week events per day, sorted by date.
// Days from today up to 7 days ahead are always present, with a zero count if empty.
func ComputeDayCounts(events []Event, now time.Time) []DayCount {
	loc := now.Location()
	day2count := make(map[string]int)
	key2day := make(map[string]time.Time)
	for _, e := range ReportingWeek(events, now) {
		day, err := ParseDay(e.Date, loc)
		if err != nil {
			continue
		}
		key := day.Format(DateLayout)
		key2day[key] = day
		day2count[key]++
	}

	for _, day := range forwardWindow(now) {
		key := day.Format(DateLayout)
		if _, ok := day2count[key]; !ok {
			key2day[key] = day
			day2count[key] = 0
		}
	}

	keys := make([]string, 0, len(day2count))
	for key := range day2count {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return key2day[keys[i]].Before(key2day[keys[j]])
	})

	dayCounts := make([]DayCount, 0, len(keys))
	for _, key := range keys {
		dayCounts = append(dayCounts, DayCount{
			Day:   key,
			Count: day2count[key],
		})
	}
	return dayCounts
}

// ComputeHourAverages returns, for every hour 0-23, the number of events
// in that hour divided by 7, rounded to 2 decimals.
func ComputeHourAverages(events []Event) []HourAverage {
	hour2count := make([]int, hoursInDay)
	for _, e := range events {
		hour, err := ParseHour(e.Time)
		if err != nil {
			continue
		}
		hour2count[hour]++
	}

	averages := make([]HourAverage, 0, hoursInDay)
	for hour, count := range hour2count {
		averages = append(averages, HourAverage{
			Hour:  hour,
			Count: roundTo2(float64(count) / daysInWeek),
		})
	}
	return averages
}

// ComputeTodayHourCounts counts today's events per hour (0-23) and keeps
// the positions recorded in each hour. Today is now's calendar date.
func ComputeTodayHourCounts(events []Event, now time.Time) []HourCount {
	hourCounts := make([]HourCount, hoursInDay)
	for hour := range hourCounts {
		hourCounts[hour] = HourCount{
			Hour:      hour,
			Positions: []string{},
		}
	}

	for _, e := range Today(events, now) {
		hour, err := ParseHour(e.Time)
		if err != nil {
			continue
		}
		hourCounts[hour].Count++
		hourCounts[hour].Positions = append(hourCounts[hour].Positions, e.Position)
	}
	return hourCounts
}

// Today keeps the events dated on now's calendar date.
func Today(events []Event, now time.Time) []Event {
	y, m, d := now.Date()
	today := make([]Event, 0)
	for _, e := range events {
		day, err := ParseDay(e.Date, now.Location())
		if err != nil {
			continue
		}
		if ey, em, ed := day.Date(); ey == y && em == m && ed == d {
			today = append(today, e)
		}
	}
	return today
}

// ComputeHeatSectors maps the positions to their coordinates and bins them
// into a columns x rows grid. Unknown positions are not counted.
func ComputeHeatSectors(positions []string, columns, rows int) []HeatSector {
	coordinates := make([]Coordinate, 0, len(positions))
	for _, p := range positions {
		if c, ok := Position(p).Coordinate(); ok {
			coordinates = append(coordinates, c)
		}
	}
	return BinCoordinates(coordinates, columns, rows)
}

// BinCoordinates partitions the 0-90 x 0-90 space into columns x rows equal sectors
// and counts the coordinates in each. Sectors are listed column by column, bottom to top.
func BinCoordinates(coordinates []Coordinate, columns, rows int) []HeatSector {
	if columns <= 0 {
		columns = DefaultColumns
	}
	if rows <= 0 {
		rows = DefaultRows
	}

	width := HeatMapSize / float64(columns)
	height := HeatMapSize / float64(rows)

	sectors := make([]HeatSector, 0, columns*rows)
	for col := 0; col < columns; col++ {
		for row := 0; row < rows; row++ {
			sector := HeatSector{
				X1: float64(col) * width,
				X2: float64(col+1) * width,
				Y1: float64(row) * height,
				Y2: float64(row+1) * height,
			}
			for _, c := range coordinates {
				if sector.Contains(c) {
					sector.Count++
				}
			}
			sectors = append(sectors, sector)
		}
	}
	return sectors
}

func (s HeatSector) Contains(c Coordinate) bool {
	return c.X > s.X1 && c.X < s.X2 && c.Y > s.Y1 && c.Y <= s.Y2
}

// GroupByDay lists the events under their canonical date, in store order.
// Events with an unparseable date are left out.
// Days from today up to 7 days ahead are always present, with an empty list if there are no events.
func GroupByDay(events []Event, now time.Time) map[string][]DayEntry {
	day2entries := make(map[string][]DayEntry)
	for _, e := range events {
		day, err := ParseDay(e.Date, now.Location())
		if err != nil {
			continue
		}
		key := day.Format(DateLayout)
		day2entries[key] = append(day2entries[key], e.DayEntry())
	}

	for _, day := range forwardWindow(now) {
		key := day.Format(DateLayout)
		if _, ok := day2entries[key]; !ok {
			day2entries[key] = []DayEntry{}
		}
	}
	return day2entries
}

// Positions returns the position labels of the events, in order.
func Positions(events []Event) []string {
	positions := make([]string, 0, len(events))
	for _, e := range events {
		positions = append(positions, e.Position)
	}
	return positions
}

// forwardWindow returns midnight of today and of the following 7 days.
func forwardWindow(now time.Time) []time.Time {
	y, m, d := now.Date()
	days := make([]time.Time, 0, forwardDays)
	for i := 0; i < forwardDays; i++ {
		days = append(days, time.Date(y, m, d+i, 0, 0, 0, 0, now.Location()))
	}
	return days
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
