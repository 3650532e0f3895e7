package main

import (
	"fmt"
	"strconv"
	"time"

	"hotel-booking-server/models"

	"gopkg.in/yaml.v3"
)

const (
	dateLayout = "2006-01-02"
	// maxSpanDays caps one range so a typo in a year cannot write decades of rows.
	maxSpanDays = 3 * 366
)

// seedFile is the on-disk format:
//
//	ranges:
//	  - from: 2024-06-01
//	    to: 2024-06-30
//	    seaView: 5
//	    gardenView: 10
type seedFile struct {
	Ranges []seedRange `yaml:"ranges"`
}

type seedRange struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	SeaView    *int   `yaml:"seaView"`
	GardenView *int   `yaml:"gardenView"`
}

// parsePlan decodes a seed file and expands every range into one record
// per night. Later ranges override earlier ones for the dates they share.
func parsePlan(data []byte) ([]models.AvailabilityRecord, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if len(file.Ranges) == 0 {
		return nil, fmt.Errorf("seed file has no ranges")
	}

	byDate := map[string]int{}
	var records []models.AvailabilityRecord
	for i, r := range file.Ranges {
		expanded, err := r.expand()
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i+1, err)
		}
		for _, rec := range expanded {
			if at, ok := byDate[rec.Date]; ok {
				records[at] = rec
				continue
			}
			byDate[rec.Date] = len(records)
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r seedRange) expand() ([]models.AvailabilityRecord, error) {
	from, err := time.Parse(dateLayout, r.From)
	if err != nil {
		return nil, fmt.Errorf("from %q is not YYYY-MM-DD", r.From)
	}
	to := from
	if r.To != "" {
		if to, err = time.Parse(dateLayout, r.To); err != nil {
			return nil, fmt.Errorf("to %q is not YYYY-MM-DD", r.To)
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("to %s is before from %s", r.To, r.From)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxSpanDays {
		return nil, fmt.Errorf("range spans %d days, more than %d", days, maxSpanDays)
	}

	counts := map[models.RoomType]string{}
	for rt, n := range map[models.RoomType]*int{models.SeaView: r.SeaView, models.GardenView: r.GardenView} {
		if n == nil {
			continue
		}
		if *n < 0 {
			return nil, fmt.Errorf("%s count must not be negative", rt)
		}
		counts[rt] = strconv.Itoa(*n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("at least one of seaView or gardenView is required")
	}

	var records []models.AvailabilityRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		c := make(map[models.RoomType]string, len(counts))
		for rt, v := range counts {
			c[rt] = v
		}
		records = append(records, models.AvailabilityRecord{Date: d.Format(dateLayout), Counts: c})
	}
	return records, nil
}
