package masterclass

import (
	"errors"

	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateCourse(course *types.Course) error {
	return d.db.Create(course).Error
}

func (d *Database) GetCourse(courseID string) (*types.Course, error) {
	var course types.Course
	if err := d.db.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (d *Database) ListCourses(level, category string, limit, offset int) ([]types.Course, error) {
	query := d.db.Model(&types.Course{})
	if level != "" {
		query = query.Where("level = ?", level)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []types.Course
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (d *Database) UpdateCourse(course *types.Course) error {
	return d.db.Save(course).Error
}

func (d *Database) DeleteCourse(course *types.Course) error {
	return d.db.Delete(course).Error
}
