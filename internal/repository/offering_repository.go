package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

// OfferingRepository is the read-only view of the section catalog: courses,
// offering structure, placements and current enrollment counts.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs an OfferingRepository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const courseColumns = `id, offering_id, subject, course_nbr, title, credit_min, has_credit`

// FindCourseByID fetches one course.
func (r *OfferingRepository) FindCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindCourseByName resolves an external course key like "MA 16100" within a
// term. Returns sql.ErrNoRows when unknown.
func (r *OfferingRepository) FindCourseByName(ctx context.Context, termID int64, name string) (*models.Course, error) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	if len(parts) != 2 {
		return nil, sql.ErrNoRows
	}
	query := `SELECT c.` + strings.ReplaceAll(courseColumns, ", ", ", c.") + `
        FROM courses c
        JOIN offerings o ON o.id = c.offering_id
        WHERE o.term_id = $1 AND c.subject = $2 AND c.course_nbr = $3`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, termID, parts[0], parts[1]); err != nil {
		return nil, err
	}
	return &course, nil
}

type sectionRow struct {
	ID            int64         `db:"id"`
	ConfigID      int64         `db:"config_id"`
	SubpartID     int64         `db:"subpart_id"`
	ParentID      sql.NullInt64 `db:"parent_id"`
	Name          string        `db:"name"`
	Limit         int           `db:"section_limit"`
	Enrollment    int           `db:"enrollment"`
	Cancelled     bool          `db:"cancelled"`
	Days          sql.NullInt16 `db:"days"`
	StartSlot     sql.NullInt32 `db:"start_slot"`
	SlotLength    sql.NullInt32 `db:"slot_length"`
	SubpartName   string        `db:"subpart_name"`
	SubpartParent sql.NullInt64 `db:"subpart_parent_id"`
}

// LoadOffering assembles the full config/subpart/section structure of one
// offering, including linked-section groups.
func (r *OfferingRepository) LoadOffering(ctx context.Context, offeringID int64) (*models.Offering, error) {
	const query = `SELECT sec.id, sp.config_id, sec.subpart_id, sec.parent_id, sec.name,
        sec.section_limit, sec.enrollment, sec.cancelled, sec.days, sec.start_slot, sec.slot_length,
        sp.name AS subpart_name, sp.parent_id AS subpart_parent_id
        FROM sections sec
        JOIN subparts sp ON sp.id = sec.subpart_id
        JOIN configs cfg ON cfg.id = sp.config_id
        WHERE cfg.offering_id = $1
        ORDER BY cfg.id, sp.position, sec.position`
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, offeringID); err != nil {
		return nil, fmt.Errorf("load offering %d: %w", offeringID, err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}

	offering := &models.Offering{ID: offeringID}
	configIdx := make(map[int64]int)
	subpartIdx := make(map[int64]int)
	for _, row := range rows {
		ci, ok := configIdx[row.ConfigID]
		if !ok {
			offering.Configs = append(offering.Configs, models.Config{ID: row.ConfigID})
			ci = len(offering.Configs) - 1
			configIdx[row.ConfigID] = ci
		}
		cfg := &offering.Configs[ci]
		si, ok := subpartIdx[row.SubpartID]
		if !ok {
			cfg.Subparts = append(cfg.Subparts, models.Subpart{
				ID:       row.SubpartID,
				ParentID: row.SubpartParent.Int64,
				Name:     row.SubpartName,
			})
			si = len(cfg.Subparts) - 1
			subpartIdx[row.SubpartID] = si
		}
		section := models.Section{
			ID:         row.ID,
			SubpartID:  row.SubpartID,
			ParentID:   row.ParentID.Int64,
			Name:       row.Name,
			Limit:      row.Limit,
			Enrollment: row.Enrollment,
			Cancelled:  row.Cancelled,
		}
		if row.Days.Valid && row.SlotLength.Int32 > 0 {
			section.Placement = &models.TimePlacement{
				Days:      uint8(row.Days.Int16),
				StartSlot: int(row.StartSlot.Int32),
				Length:    int(row.SlotLength.Int32),
			}
		}
		cfg.Subparts[si].Sections = append(cfg.Subparts[si].Sections, section)
	}

	const linkedQuery = `SELECT group_id, section_id FROM linked_sections
        WHERE offering_id = $1 ORDER BY group_id, section_id`
	var linked []struct {
		GroupID   int64 `db:"group_id"`
		SectionID int64 `db:"section_id"`
	}
	if err := r.db.SelectContext(ctx, &linked, linkedQuery, offeringID); err != nil {
		return nil, fmt.Errorf("load linked sections %d: %w", offeringID, err)
	}
	var lastGroup int64 = -1
	for _, row := range linked {
		if row.GroupID != lastGroup {
			offering.LinkedSections = append(offering.LinkedSections, nil)
			lastGroup = row.GroupID
		}
		n := len(offering.LinkedSections)
		offering.LinkedSections[n-1] = append(offering.LinkedSections[n-1], row.SectionID)
	}

	return offering, nil
}

// EnrolledSections returns the sections the student currently holds, keyed
// by course id.
func (r *OfferingRepository) EnrolledSections(ctx context.Context, studentID int64) (map[int64][]models.Section, error) {
	const query = `SELECT e.course_id, sec.id, sec.subpart_id, sec.parent_id, sec.name,
        sec.section_limit, sec.enrollment, sec.cancelled, sec.days, sec.start_slot, sec.slot_length
        FROM enrollments e
        JOIN sections sec ON sec.id = e.section_id
        WHERE e.student_id = $1
        ORDER BY e.course_id, sec.id`
	var rows []struct {
		CourseID   int64         `db:"course_id"`
		ID         int64         `db:"id"`
		SubpartID  int64         `db:"subpart_id"`
		ParentID   sql.NullInt64 `db:"parent_id"`
		Name       string        `db:"name"`
		Limit      int           `db:"section_limit"`
		Enrollment int           `db:"enrollment"`
		Cancelled  bool          `db:"cancelled"`
		Days       sql.NullInt16 `db:"days"`
		StartSlot  sql.NullInt32 `db:"start_slot"`
		SlotLength sql.NullInt32 `db:"slot_length"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("load enrolled sections: %w", err)
	}
	out := make(map[int64][]models.Section, len(rows))
	for _, row := range rows {
		section := models.Section{
			ID:         row.ID,
			SubpartID:  row.SubpartID,
			ParentID:   row.ParentID.Int64,
			Name:       row.Name,
			Limit:      row.Limit,
			Enrollment: row.Enrollment,
			Cancelled:  row.Cancelled,
		}
		if row.Days.Valid && row.SlotLength.Int32 > 0 {
			section.Placement = &models.TimePlacement{
				Days:      uint8(row.Days.Int16),
				StartSlot: int(row.StartSlot.Int32),
				Length:    int(row.SlotLength.Int32),
			}
		}
		out[row.CourseID] = append(out[row.CourseID], section)
	}
	return out, nil
}

// FindSession resolves the external term and campus of a term.
func (r *OfferingRepository) FindSession(ctx context.Context, termID int64) (*models.AcademicSession, error) {
	const query = `SELECT term_id, year, term, banner_term, banner_campus
        FROM academic_sessions WHERE term_id = $1`
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, termID); err != nil {
		return nil, err
	}
	return &session, nil
}
