package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/class-booking/internal/model"
)

// CourseFilter lists the optional course list filters.  Member fields are
// matched through the owning member row.
type CourseFilter struct {
	MembersID   uint64
	Name        string
	Phone       string
	ParentPhone string
	ClassType   string
	From        *time.Time // first day of the window
	To          *time.Time // day after the last day of the window
}

func (f CourseFilter) scopes() []Scope {
	s := []Scope{joinActive("members", "members.id = courses.members_id")}
	if f.MembersID != 0 {
		s = append(s, Equals("courses.members_id", f.MembersID))
	}
	if f.Name != "" {
		s = append(s, Contains("members.name", f.Name))
	}
	if f.Phone != "" {
		s = append(s, Contains("members.phone", f.Phone))
	}
	if f.ParentPhone != "" {
		s = append(s, Contains("members.parent_phone", f.ParentPhone))
	}
	if f.ClassType != "" {
		s = append(s, Equals("courses.class_type", f.ClassType))
	}
	if f.From != nil || f.To != nil {
		s = append(s, Overlaps("courses.start_date", "courses.end_date", f.From, f.To))
	}
	return s
}

type CourseRepo struct{ DB *gorm.DB }

func NewCourseRepo(db *gorm.DB) *CourseRepo { return &CourseRepo{DB: db} }

func (r *CourseRepo) WithTx(tx *gorm.DB) *CourseRepo { return &CourseRepo{DB: tx} }

func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return errors.Wrap(err, "insert course")
	}
	return nil
}

// GetActive loads a non-deleted course.
func (r *CourseRepo) GetActive(ctx context.Context, id uint64) (model.Course, error) {
	var c model.Course
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return c, notFound(err)
}

// LockActive loads a course whose member is also live and holds a row
// lock on it until the surrounding transaction ends.  Drivers without
// row locks (sqlite) ignore the clause.
func (r *CourseRepo) LockActive(ctx context.Context, id uint64) (model.Course, error) {
	var c model.Course
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(joinActive("members", "members.id = courses.members_id")).
		Where("courses.id = ?", id).
		First(&c).Error
	return c, notFound(err)
}

func (r *CourseRepo) Update(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Updates(fields).Error
	return errors.Wrap(err, "update course")
}

func (r *CourseRepo) SoftDelete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete course")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching courses of live members, each with its member.
func (r *CourseRepo) List(ctx context.Context, f CourseFilter, page *Page) ([]model.Course, int64, error) {
	return List[model.Course](ctx, r.DB, ListQuery{Scopes: f.scopes(), Page: page}, "Member")
}
