package service

import (
	"sort"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

// CreditLimitEvaluator selects which requested courses to flag when the
// total requested credit exceeds the student's ceiling. The staged passes
// progressively consider alternates, aiming to name the most dispensable
// course; callers invoke it only after establishing that the total is over.
type CreditLimitEvaluator struct{}

// NewCreditLimitEvaluator constructs a CreditLimitEvaluator.
func NewCreditLimitEvaluator() *CreditLimitEvaluator {
	return &CreditLimitEvaluator{}
}

// RequestedCredit sums the first-choice credit of every primary line.
func (e *CreditLimitEvaluator) RequestedCredit(groups []models.CourseRequestGroup) float64 {
	total := 0.0
	for _, group := range groups {
		if group.Alternative {
			continue
		}
		if primary := group.Primary(); primary != nil {
			total += primary.Credit()
		}
	}
	return total
}

// OverCreditRequests returns the courses to flag for exceeding max. Each
// stage runs only when every earlier stage flagged nothing; the final
// fallback guarantees at least one course when any course exists.
func (e *CreditLimitEvaluator) OverCreditRequests(groups []models.CourseRequestGroup, max float64) []models.RequestedCourse {
	// Stage 1: cumulative primary credit in request order.
	var flagged []models.RequestedCourse
	total := 0.0
	for _, group := range groups {
		if group.Alternative {
			continue
		}
		primary := group.Primary()
		if primary == nil || !primary.HasCredit {
			continue
		}
		total += primary.Credit()
		if total > max {
			flagged = append(flagged, *primary)
		}
	}
	if len(flagged) > 0 {
		return flagged
	}

	// Stage 2: substituting an alternate for its own primary.
	for _, group := range groups {
		if group.Alternative || len(group.Courses) < 2 {
			continue
		}
		primary := group.Primary()
		for _, alt := range group.Courses[1:] {
			if !alt.HasCredit {
				continue
			}
			if total-primary.Credit()+alt.Credit() > max {
				flagged = append(flagged, alt)
			}
		}
	}
	if len(flagged) > 0 {
		return flagged
	}

	// Stage 3: running total over the highest-credit option seen so far
	// per primary request, flagging each option whose addition goes over.
	total = 0.0
	for _, group := range groups {
		if group.Alternative {
			continue
		}
		highest := 0.0
		for _, course := range group.Courses {
			if !course.HasCredit {
				continue
			}
			if course.Credit() > highest {
				if total+course.Credit() > max {
					flagged = append(flagged, course)
				}
				highest = course.Credit()
			}
		}
		total += highest
	}
	if len(flagged) > 0 {
		return flagged
	}

	// Stage 4: replacing the lowest per-request requirement with a course
	// from an alternate list, flagging at most one course per alternate line.
	var credits []float64
	for _, group := range groups {
		if group.Alternative {
			continue
		}
		highest := 0.0
		for _, course := range group.Courses {
			if course.Credit() > highest {
				highest = course.Credit()
			}
		}
		credits = append(credits, highest)
	}
	sort.Float64s(credits)
	if len(credits) > 0 {
		lowest := credits[0]
		base := 0.0
		for _, c := range credits {
			base += c
		}
		for _, group := range groups {
			if !group.Alternative {
				continue
			}
			for _, course := range group.Courses {
				if !course.HasCredit {
					continue
				}
				if base-lowest+course.Credit() > max {
					flagged = append(flagged, course)
					break
				}
			}
		}
	}
	if len(flagged) > 0 {
		return flagged
	}

	// Fallback: first alternate course found, else the last primary.
	for _, group := range groups {
		if group.Alternative && len(group.Courses) > 0 {
			return []models.RequestedCourse{group.Courses[0]}
		}
	}
	var last *models.RequestedCourse
	for i := range groups {
		if groups[i].Alternative {
			continue
		}
		if primary := groups[i].Primary(); primary != nil {
			last = primary
		}
	}
	if last != nil {
		return []models.RequestedCourse{*last}
	}
	return nil
}
