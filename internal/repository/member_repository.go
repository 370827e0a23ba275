package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/class-booking/internal/model"
)

// MemberFilter lists the optional member list filters.  Zero values are
// ignored.  CreatedFrom/CreatedTo form a half-open range on created_at.
type MemberFilter struct {
	ID          uint64
	Name        string
	Phone       string
	ParentPhone string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (f MemberFilter) scopes() []Scope {
	var s []Scope
	if f.ID != 0 {
		s = append(s, Equals("members.id", f.ID))
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
	if f.CreatedFrom != nil || f.CreatedTo != nil {
		s = append(s, InRange("members.created_at", f.CreatedFrom, f.CreatedTo))
	}
	return s
}

type MemberRepo struct{ DB *gorm.DB }

func NewMemberRepo(db *gorm.DB) *MemberRepo { return &MemberRepo{DB: db} }

// WithTx returns a repo bound to tx.
func (r *MemberRepo) WithTx(tx *gorm.DB) *MemberRepo { return &MemberRepo{DB: tx} }

func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return errors.Wrap(err, "insert member")
	}
	return nil
}

// GetActive loads a non-deleted member.
func (r *MemberRepo) GetActive(ctx context.Context, id uint64) (model.Member, error) {
	var m model.Member
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return m, notFound(err)
}

// Update writes only the supplied columns.
func (r *MemberRepo) Update(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Updates(fields).Error
	return errors.Wrap(err, "update member")
}

// SoftDelete stamps deleted_at.  A member that is already deleted is
// reported as ErrNotFound.
func (r *MemberRepo) SoftDelete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Member{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete member")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching members with their non-deleted courses.
func (r *MemberRepo) List(ctx context.Context, f MemberFilter, page *Page) ([]model.Member, int64, error) {
	return List[model.Member](ctx, r.DB, ListQuery{Scopes: f.scopes(), Page: page}, "Courses")
}
