package article

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("article not found")

// Create validates and stores a new article.
func Create(db *gorm.DB, a *Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := db.Create(a).Error; err != nil {
		return fmt.Errorf("failed to store article: %w", err)
	}
	return nil
}

// Get loads one article by id.
func Get(db *gorm.DB, id uint) (*Article, error) {
	var a Article
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns articles ordered by week. With activeOnly set, deactivated
// articles are hidden (the student view).
func List(db *gorm.DB, activeOnly bool) ([]Article, error) {
	q := db.Order("week_number ASC, id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var articles []Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Deactivate hides an article from students. The only mutation allowed after
// activation.
func Deactivate(db *gorm.DB, id uint) error {
	res := db.Model(&Article{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
