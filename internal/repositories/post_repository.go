package repositories

import (
	"context"

	"github.com/anonto42/postboard/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, mutate func(post *models.Post) error) (*models.Post, error)
	DeletePost(ctx context.Context, id uint, check func(post *models.Post) error) (*models.Post, error)
	LatestPosts(ctx context.Context, limit int) ([]models.Post, error)
	PostsByUser(ctx context.Context, userID uint) ([]models.Post, error)
}

// PostgresPostRepository implements PostRepository on top of gorm
type PostgresPostRepository struct {
	db *gorm.DB
}

func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// newestFirst orders by creation time, breaking ties by id.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").First(post, post.ID).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, normalize(err)
	}
	return &post, nil
}

// UpdatePost locks the post row, lets mutate edit the loaded post and then
// writes the editable columns back, all in one transaction. An error from
// mutate rolls the transaction back and is returned unchanged. The owner is
// never written.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, id uint, mutate func(post *models.Post) error) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, id, &post); err != nil {
			return err
		}
		if err := mutate(&post); err != nil {
			return err
		}
		res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":       post.Title,
			"description": post.Description,
			"image":       post.Image,
			"updated_at":  post.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Preload("Author").First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost locks the post row, runs check against it and then removes the
// post and every like referencing it. The deleted post is returned so the
// caller can clean up what it pointed at.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint, check func(post *models.Post) error) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, id, &post); err != nil {
			return err
		}
		if check != nil {
			if err := check(&post); err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// lockPost loads the post with SELECT ... FOR UPDATE so writers on the same
// post run one after another.
func lockPost(tx *gorm.DB, id uint, post *models.Post) error {
	return normalize(tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(post, id).Error)
}

func (r *PostgresPostRepository) LatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Preload("Author").Scopes(newestFirst).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) PostsByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Preload("Author").Where("user_id = ?", userID).Scopes(newestFirst).Find(&posts).Error
	return posts, err
}
