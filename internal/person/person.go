// Package person defines the profile value type shared by the traversal
// engine and the biography checks, plus the date-derived predicates that
// select which source-validation rules apply.
package person

import (
	"strconv"
	"strings"
	"time"
)

// Privacy ordinals as reported by the server. Higher is more open.
const (
	PrivacyUnknown       = 0
	PrivacyUnlisted      = 10
	PrivacyPrivate       = 20
	PrivacySemiPrivate   = 30
	PrivacySemiPrivateBio = 35
	PrivacyPrivateTree   = 40
	PrivacyPublic        = 50
	PrivacyOpen          = 60
)

// Precision indicates how much of a date the server actually knows.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

// Date is a possibly partial calendar date.
type Date struct {
	Year      int
	Month     int
	Day       int
	Precision Precision
}

// ParseDate parses the server's "YYYY-MM-DD" date form, where any
// component may be zero to indicate it is unknown. "0000-00-00", the
// empty string, and unparseable input all yield a Date with
// PrecisionNone.
func ParseDate(s string) Date {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) != 3 {
		return Date{}
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year == 0 {
		return Date{}
	}
	d := Date{Year: year, Precision: PrecisionYear}
	if month, err := strconv.Atoi(parts[1]); err == nil && month > 0 {
		d.Month = month
		d.Precision = PrecisionMonth
		if day, err := strconv.Atoi(parts[2]); err == nil && day > 0 {
			d.Day = day
			d.Precision = PrecisionDay
		}
	}
	return d
}

// IsSet reports whether any part of the date is known.
func (d Date) IsSet() bool {
	return d.Precision != PrecisionNone
}

// Record holds one profile's identity and the fields the checks need.
// Bio is transient: the traversal engine clears it once the biography
// has been parsed so records held for relative expansion stay small.
type Record struct {
	ID        int64
	Name      string // human-readable id, e.g. "Surname-123"
	ManagerID int64  // 0 = orphaned profile
	Privacy   int
	IsLiving  bool
	Birth     Date
	Death     Date
	Bio       string
}

// HasName reports whether the server returned a display identity.
// Profiles without one cannot be reported and are counted as excluded.
func (r Record) HasName() bool {
	return strings.TrimSpace(r.Name) != ""
}

// IsOrphan reports whether the profile has no manager.
func (r Record) IsOrphan() bool {
	return r.ManagerID == 0
}

// IsUndated reports whether the profile carries no dates at all, in
// which case source validation is skipped entirely.
func IsUndated(r Record) bool {
	return !r.Birth.IsSet() && !r.Death.IsSet()
}

// IsPre1500 reports whether the subject's lifetime falls before 1500,
// which both tightens source rules and can exclude the profile from
// checking altogether.
func IsPre1500(r Record) bool {
	return bornOrDiedBefore(r, 1500)
}

// IsPre1700 reports whether the subject's lifetime falls before 1700,
// which enables the stricter pre-1700 invalid-source lists.
func IsPre1700(r Record) bool {
	return bornOrDiedBefore(r, 1700)
}

// memorySpanYears is how far back living memory is assumed to reach.
const memorySpanYears = 100

// TooOldToRemember reports whether the subject predates living memory,
// making first-hand-knowledge citations invalid for this profile.
func TooOldToRemember(r Record) bool {
	cutoff := time.Now().Year() - memorySpanYears
	if r.Birth.Year > 0 && r.Birth.Year <= cutoff {
		return true
	}
	// Someone who died more than memorySpanYears-20 years ago is also
	// beyond the reach of anyone's first-hand knowledge.
	return r.Death.Year > 0 && r.Death.Year <= cutoff+20
}

func bornOrDiedBefore(r Record, year int) bool {
	if r.Birth.Year > 0 && r.Birth.Year < year {
		return true
	}
	return r.Death.Year > 0 && r.Death.Year < year
}
