package domain

import (
	"errors"
	"fmt"
)

// ResumeCursor marks where an interrupted run should pick up. Pairs that sort
// before it (region declaration order, then month) are skipped without any
// network call. A zero Month resumes from the start of Region.
type ResumeCursor struct {
	Region string
	Month  MonthKey
}

// String formats the cursor as region/YYYY-MM.
func (c ResumeCursor) String() string {
	if c.Month.IsZero() {
		return c.Region
	}
	return c.Region + "/" + c.Month.String()
}

// ParseResumeCursor builds a cursor from its configured parts. Both empty
// means no cursor. A month without a region is rejected.
func ParseResumeCursor(region, month string) (*ResumeCursor, error) {
	if region == "" && month == "" {
		return nil, nil
	}
	if region == "" {
		return nil, errors.New("resume month set without resume region")
	}
	r, ok := LookupRegion(region)
	if !ok {
		return nil, fmt.Errorf("unknown resume region %q", region)
	}
	c := &ResumeCursor{Region: r.Name}
	if month != "" {
		m, err := ParseMonthKey(month)
		if err != nil {
			return nil, err
		}
		c.Month = m
	}
	return c, nil
}

// Pair is one unit of work for the bulk job.
type Pair struct {
	Region  Region
	Month   MonthKey
	Skipped bool // before the resume cursor
}

// Plan lists every (region, month) pair in iteration order, region-major and
// month-minor, marking the ones that sort before the cursor as skipped. It is
// a pure function of its inputs; existence checks happen later, per pair.
func Plan(regs []Region, months []MonthKey, cursor *ResumeCursor) []Pair {
	out := make([]Pair, 0, len(regs)*len(months))

	reachedRegion := cursor == nil
	for _, r := range regs {
		if !reachedRegion && !regionBefore(r.Name, cursor.Region) {
			reachedRegion = true
		}

		// Months are only filtered inside the cursor's own region.
		reachedMonth := cursor == nil || r.Name != cursor.Region
		for _, m := range months {
			if !reachedMonth && !m.Before(cursor.Month) {
				reachedMonth = true
			}
			out = append(out, Pair{
				Region:  r,
				Month:   m,
				Skipped: !reachedRegion || !reachedMonth,
			})
		}
	}
	return out
}

// regionBefore compares two region names by declaration order. Unknown names
// sort last.
func regionBefore(a, b string) bool {
	return regionIndex(a) < regionIndex(b)
}

func regionIndex(name string) int {
	for i, r := range regions {
		if r.Name == name {
			return i
		}
	}
	return len(regions)
}
