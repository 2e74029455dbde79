package generator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/nao1215/arcrack/internal/model"
)

const (
	// MinDateYear and MaxDateYear bound the range OptimizeDateRange may choose.
	MinDateYear = 1990
	MaxDateYear = 2030

	// DefaultDateMaxVariants is the default output cap of the date mode.
	DefaultDateMaxVariants = 50000

	dateMinLength   = 2
	dateMaxLength   = 20
	dateAffixBase   = 200
	creationSpread  = 10
	fileYearPadding = 5
)

// yearInName matches four-digit years between 1900 and 2099.
var yearInName = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// specialDates are holidays and common birthdays as month/day pairs.
var specialDates = [][2]int{
	{1, 1}, {2, 14}, {3, 8}, {5, 1}, {6, 1}, {10, 1}, {12, 25},
	{1, 15}, {2, 20}, {3, 15}, {4, 10}, {5, 20}, {6, 15},
	{7, 10}, {8, 15}, {9, 20}, {10, 15}, {11, 10}, {12, 20},
}

var (
	datePrefixes = []string{"birth", "birthday", "date", "year"}
	dateSuffixes = []string{"!", "@", "#", "123", "321", "000", "888"}
)

// DateRangeOptions configures a DateRangeMode.
type DateRangeOptions struct {
	// StartYear and EndYear bound the enumerated years, inclusive.
	StartYear int
	EndYear   int

	// IncludeMonths adds year-month combinations.
	IncludeMonths bool

	// IncludeSpecialDates adds holidays and common birthdays for every year.
	IncludeSpecialDates bool

	// MaxVariants caps the number of candidates.
	MaxVariants int
}

// DefaultDateRangeOptions returns the default date mode options.
func DefaultDateRangeOptions() DateRangeOptions {
	return DateRangeOptions{
		StartYear:           MinDateYear,
		EndYear:             MaxDateYear,
		IncludeMonths:       true,
		IncludeSpecialDates: true,
		MaxVariants:         DefaultDateMaxVariants,
	}
}

// DateRangeMode enumerates date-shaped passwords over a year range.
type DateRangeMode struct {
	baseMode
	startYear           int
	endYear             int
	includeMonths       bool
	includeSpecialDates bool
}

// NewDateRangeMode creates a date mode.
func NewDateRangeMode(opts DateRangeOptions) *DateRangeMode {
	m := &DateRangeMode{
		startYear:           opts.StartYear,
		endYear:             opts.EndYear,
		includeMonths:       opts.IncludeMonths,
		includeSpecialDates: opts.IncludeSpecialDates,
	}
	m.maxVariants = opts.MaxVariants
	if m.maxVariants <= 0 {
		m.maxVariants = DefaultDateMaxVariants
	}
	return m
}

// Name returns "date".
func (m *DateRangeMode) Name() string { return ModeDate }

// Range returns the current year range.
func (m *DateRangeMode) Range() (start, end int) {
	return m.startYear, m.endYear
}

// SetRange sets the year range.
func (m *DateRangeMode) SetRange(start, end int) {
	m.startYear, m.endYear = start, end
}

// Generate enumerates years, year-month combinations, special dates and a
// bounded set of prefixed and suffixed variants, in that order.
func (m *DateRangeMode) Generate(ctx context.Context, _ model.GenerationContext) ([]string, error) {
	if m.startYear > m.endYear {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, m.startYear, m.endYear)
	}

	set := newCandidateSet(dateMinLength, dateMaxLength, m.maxVariants)

	for year := m.startYear; year <= m.endYear && !set.full(); year++ {
		set.add(strconv.Itoa(year))
		set.add(twoDigitYear(year))
	}

	if m.includeMonths {
		for year := m.startYear; year <= m.endYear && !set.full(); year++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			yyyy, yy := strconv.Itoa(year), twoDigitYear(year)
			for month := 1; month <= 12 && !set.full(); month++ {
				mm := pad2(month)
				set.addAll([]string{
					yyyy + mm,
					yy + mm,
					yyyy + "-" + mm,
					mm + yyyy,
					mm + "-" + yyyy,
				})
			}
		}
	}

	if m.includeSpecialDates {
		for _, sd := range specialDates {
			if set.full() {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			mm, dd := pad2(sd[0]), pad2(sd[1])
			for year := m.startYear; year <= m.endYear && !set.full(); year++ {
				yyyy, yy := strconv.Itoa(year), twoDigitYear(year)
				set.addAll([]string{
					dd + mm + yyyy,
					dd + mm + yy,
					mm + dd + yyyy,
					mm + dd + yy,
					yyyy + mm + dd,
					yy + mm + dd,
					dd + "-" + mm + "-" + yyyy,
					dd + "/" + mm + "/" + yyyy,
					mm + "-" + dd + "-" + yyyy,
					mm + "/" + dd + "/" + yyyy,
				})
			}
		}
	}

	base := set.list()
	if len(base) > dateAffixBase {
		base = base[:dateAffixBase]
	}
	base = append([]string(nil), base...)
	for _, c := range base {
		if set.full() {
			break
		}
		for _, p := range datePrefixes {
			set.add(p + c)
		}
		for _, s := range dateSuffixes {
			set.add(c + s)
		}
	}

	return set.list(), nil
}

// OptimizeDateRange narrows the year range to ten years around the known
// creation time, then widens it to include years found in the file name
// or in harvested dates, padded by five years. The result is clamped to
// [MinDateYear, MaxDateYear].
func (m *DateRangeMode) OptimizeDateRange(gc model.GenerationContext) {
	if gc.HasCreated() {
		year := gc.Created.Year()
		m.startYear = max(MinDateYear, year-creationSpread)
		m.endYear = min(MaxDateYear, year+creationSpread)
	}

	years := make([]int, 0)
	for _, match := range yearInName.FindAllString(gc.FileName, -1) {
		if y, err := strconv.Atoi(match); err == nil {
			years = append(years, y)
		}
	}
	for _, d := range gc.Dates {
		if !d.IsZero() {
			years = append(years, d.Year())
		}
	}

	if len(years) > 0 {
		lo, hi := years[0], years[0]
		for _, y := range years[1:] {
			lo = min(lo, y)
			hi = max(hi, y)
		}
		m.startYear = max(MinDateYear, min(m.startYear, lo-fileYearPadding))
		m.endYear = min(MaxDateYear, max(m.endYear, hi+fileYearPadding))
	}

	// A creation year outside the clamp range can leave start past end.
	if m.startYear > m.endYear {
		m.startYear = m.endYear
	}
}

func twoDigitYear(year int) string {
	return pad2(year % 100)
}

func pad2(n int) string {
	return fmt.Sprintf("%02d", n)
}
