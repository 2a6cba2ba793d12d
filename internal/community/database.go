package community

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

func (d *Database) CreatePost(post *types.CommunityPost) error {
	return d.db.Create(post).Error
}

func (d *Database) GetPost(postID string) (*types.CommunityPost, error) {
	var post types.CommunityPost
	if err := d.db.Where("post_id = ?", postID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (d *Database) ListPosts(category string, limit, offset int) ([]types.CommunityPost, error) {
	query := d.db.Model(&types.CommunityPost{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var posts []types.CommunityPost
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (d *Database) UpdatePost(post *types.CommunityPost) error {
	return d.db.Save(post).Error
}

func (d *Database) DeletePost(post *types.CommunityPost) error {
	return d.db.Delete(post).Error
}

// IncrementLikes bumps the like counter atomically in the database and
// refreshes the in-memory count.
func (d *Database) IncrementLikes(post *types.CommunityPost) error {
	result := d.db.Model(post).Update("likes_count", gorm.Expr("likes_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	post.LikesCount++
	return nil
}
