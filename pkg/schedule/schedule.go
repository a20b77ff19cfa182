package schedule

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
)

// Timing is the time-of-day slot a routine item belongs to
type Timing string

const (
	TimingMorning   Timing = "morning"
	TimingAfternoon Timing = "afternoon"
	TimingEvening   Timing = "evening"
	TimingAnytime   Timing = "anytime"
)

// Timings lists the slots in display order
var Timings = []Timing{TimingMorning, TimingAfternoon, TimingEvening, TimingAnytime}

var dayAliases = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var timingAliases = map[string]Timing{
	"morning":   TimingMorning,
	"am":        TimingMorning,
	"wake":      TimingMorning,
	"breakfast": TimingMorning,
	"afternoon": TimingAfternoon,
	"noon":      TimingAfternoon,
	"midday":    TimingAfternoon,
	"lunch":     TimingAfternoon,
	"evening":   TimingEvening,
	"pm":        TimingEvening,
	"night":     TimingEvening,
	"bed":       TimingEvening,
	"bedtime":   TimingEvening,
	"dinner":    TimingEvening,
}

// NormalizeDay maps free-form day names and abbreviations onto a weekday
func NormalizeDay(s string) (time.Weekday, bool) {
	day, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]
	return day, ok
}

// NormalizeTiming maps free-form timing words onto a slot, defaulting to
// anytime for unrecognized values.
func NormalizeTiming(s string) Timing {
	if timing, ok := timingAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return timing
	}
	return TimingAnytime
}

// Item is one routine entry placed on the weekly grid
type Item struct {
	RecordID string         `json:"record_id"`
	Name     string         `json:"name"`
	Days     []time.Weekday `json:"days"`
	Timing   Timing         `json:"timing"`
	Dose     string         `json:"dose,omitempty"`
}

// routineData is the shape of the Data blob on routine records
type routineData struct {
	Days   []string `json:"days"`
	Timing string   `json:"timing"`
	Dose   string   `json:"dose"`
}

// everyDay is the fallback when a routine names no days
var everyDay = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// ItemFromRecord parses a routine record into a schedule item. Unknown day
// names are dropped; a routine with no recognizable days runs every day.
func ItemFromRecord(r models.Record) Item {
	item := Item{
		RecordID: r.ID,
		Name:     normalizers.ItemName(r.Name),
		Timing:   TimingAnytime,
	}

	var data routineData
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err == nil {
			item.Timing = NormalizeTiming(data.Timing)
			item.Dose = data.Dose
			for _, raw := range data.Days {
				if day, ok := NormalizeDay(raw); ok {
					item.Days = append(item.Days, day)
				}
			}
		}
	}

	if len(item.Days) == 0 {
		item.Days = everyDay
	}
	return item
}

// Grid is the weekly schedule: day -> timing slot -> items sorted by name
type Grid map[time.Weekday]map[Timing][]Item

// ByDayName renders the grid with lowercase day names as keys, the shape the
// API returns.
func (g Grid) ByDayName() map[string]map[Timing][]Item {
	out := make(map[string]map[Timing][]Item, len(g))
	for day, slots := range g {
		out[strings.ToLower(day.String())] = slots
	}
	return out
}

// Build places routine records onto the weekly grid
func Build(records []models.Record) Grid {
	grid := make(Grid, 7)
	for _, day := range everyDay {
		grid[day] = make(map[Timing][]Item, len(Timings))
	}

	for _, r := range records {
		item := ItemFromRecord(r)
		for _, day := range item.Days {
			grid[day][item.Timing] = append(grid[day][item.Timing], item)
		}
	}

	for _, slots := range grid {
		for _, items := range slots {
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Name < items[j].Name
			})
		}
	}

	return grid
}
