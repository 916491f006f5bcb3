// Package services implements post management on top of the repositories
// and the image store. Every operation takes the caller's identity
// explicitly; a zero user id means an anonymous caller.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/anonto42/postboard/backend/internal/repositories"
	"github.com/anonto42/postboard/backend/pkg/storage"
	"github.com/anonto42/postboard/backend/validators"
	log "github.com/sirupsen/logrus"
)

// DefaultFeedLimit is the number of posts on the landing feed.
const DefaultFeedLimit = 5

// PostInput holds the editable fields of a post.
type PostInput struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Description string       `json:"description" validate:"required"`
	Image       *ImageUpload `json:"-"`
}

// PostService manages posts, their images and likes.
type PostService struct {
	posts    repositories.PostRepository
	likes    repositories.LikeRepository
	users    repositories.UserRepository
	images   storage.ImageStore
	validate *validators.CustomValidator
	logger   log.FieldLogger
	now      func() time.Time
	mediaURL string
}

type Option func(*PostService)

// WithClock replaces the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) { s.now = now }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(s *PostService) { s.logger = logger }
}

// WithMediaURL sets the public prefix image paths are resolved against.
func WithMediaURL(base string) Option {
	return func(s *PostService) { s.mediaURL = strings.TrimRight(base, "/") }
}

func NewPostService(
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	users repositories.UserRepository,
	images storage.ImageStore,
	opts ...Option,
) *PostService {
	s := &PostService{
		posts:    posts,
		likes:    likes,
		users:    users,
		images:   images,
		validate: validators.NewValidator(),
		logger:   log.StandardLogger(),
		now:      func() time.Time { return time.Now().UTC() },
		mediaURL: "/media",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores the image (if any) and then inserts the post, so a post is
// never visible with a half-written attachment.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if authorID == 0 {
		return nil, ErrUnauthenticated
	}
	img, err := s.checkInput(&in)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load author %d: %w", authorID, err)
	}

	now := s.now()
	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		UserID:      authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img != nil {
		if err := s.putImage(ctx, img); err != nil {
			return nil, err
		}
		post.Image = &img.path
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		if img != nil {
			s.removeImage(ctx, 0, img.path)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Update overwrites title and description and, when a new image is given,
// replaces the stored one. The post row stays locked from the ownership
// check until the write commits, so the image being replaced is always the
// one the row pointed at. The old image is removed only after the new one
// is stored and the row points at it.
func (s *PostService) Update(ctx context.Context, postID, callerID uint, in PostInput) (*models.Post, error) {
	if callerID == 0 {
		return nil, ErrUnauthenticated
	}

	var stored, previous *string
	post, err := s.posts.UpdatePost(ctx, postID, func(locked *models.Post) error {
		if locked.UserID != callerID {
			return ErrNotOwner
		}
		img, err := s.checkInput(&in)
		if err != nil {
			return err
		}
		if img != nil {
			if err := s.putImage(ctx, img); err != nil {
				return err
			}
			stored = &img.path
			previous = locked.Image
			locked.Image = &img.path
		}
		locked.Title = in.Title
		locked.Description = in.Description
		locked.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if stored != nil {
			s.removeImage(ctx, postID, *stored)
		}
		return nil, s.writeError("update", postID, err)
	}

	if previous != nil && *previous != *stored {
		s.removeImage(ctx, postID, *previous)
	}
	return post, nil
}

// Destroy deletes the post and its likes, then removes its image. A failed
// image removal is logged and does not undo the deletion.
func (s *PostService) Destroy(ctx context.Context, postID, callerID uint) error {
	if callerID == 0 {
		return ErrUnauthenticated
	}

	post, err := s.posts.DeletePost(ctx, postID, func(locked *models.Post) error {
		if locked.UserID != callerID {
			return ErrNotOwner
		}
		return nil
	})
	if err != nil {
		return s.writeError("delete", postID, err)
	}

	if post.Image != nil {
		s.removeImage(ctx, postID, *post.Image)
	}
	return nil
}

// writeError passes the service's own error kinds through and wraps
// anything else.
func (s *PostService) writeError(op string, postID uint, err error) error {
	var verr *ValidationError
	var aerr *AuthorizationError
	var serr *StorageError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrPostNotFound
	case errors.As(err, &verr), errors.As(err, &aerr), errors.As(err, &serr):
		return err
	}
	return fmt.Errorf("%s post %d: %w", op, postID, err)
}

// ToggleLike likes the post for userID, or removes the like if it exists.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	result, err := s.likes.Toggle(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("toggle like on post %d: %w", postID, err)
	}
	return result, nil
}

// Get returns a single post as seen by viewerID. Anyone may view any post.
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*models.PostView, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	views, err := s.views(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// LatestFeed returns the limit most recent posts, newest first.
func (s *PostService) LatestFeed(ctx context.Context, limit int, viewerID uint) ([]models.PostView, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	posts, err := s.posts.LatestPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load latest posts: %w", err)
	}
	return s.views(ctx, posts, viewerID)
}

// PostsByOwner lists every post of ownerID, newest first.
func (s *PostService) PostsByOwner(ctx context.Context, ownerID uint) ([]models.PostView, error) {
	if ownerID == 0 {
		return nil, ErrUnauthenticated
	}
	posts, err := s.posts.PostsByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load posts of user %d: %w", ownerID, err)
	}
	return s.views(ctx, posts, ownerID)
}

// ImageURL resolves a stored image path to its public location.
func (s *PostService) ImageURL(path string) string {
	return s.mediaURL + "/" + path
}

type checkedImage struct {
	path        string
	contentType string
	data        []byte
}

// checkInput trims and validates the text fields and the optional image.
func (s *PostService) checkInput(in *PostInput) (*checkedImage, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	fields := map[string]string{}
	if err := s.validate.Validate(in); err != nil {
		fe := validators.FieldErrors(err)
		if fe == nil {
			return nil, err
		}
		for k, v := range fe {
			fields[k] = v
		}
	}

	var img *checkedImage
	if in.Image != nil {
		ext, contentType, problem := checkImage(in.Image)
		if problem != "" {
			fields["image"] = problem
		} else {
			img = &checkedImage{path: storage.NewImagePath(ext), contentType: contentType, data: in.Image.Data}
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return img, nil
}

func (s *PostService) putImage(ctx context.Context, img *checkedImage) error {
	if err := s.images.Put(ctx, img.path, img.data, img.contentType); err != nil {
		return &StorageError{Op: "put", Path: img.path, Err: err}
	}
	return nil
}

// removeImage is best effort: failures are logged, never returned.
func (s *PostService) removeImage(ctx context.Context, postID uint, path string) {
	if err := s.images.Delete(ctx, path); err != nil {
		s.logger.WithFields(log.Fields{
			"post_id": postID,
			"path":    path,
			"error":   err,
		}).Warn("failed to remove post image")
	}
}

func (s *PostService) views(ctx context.Context, posts []models.Post, viewerID uint) ([]models.PostView, error) {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.likes.CountByPostIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	liked, err := s.likes.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("load viewer likes: %w", err)
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = p.View(counts[p.ID], liked[p.ID])
		if p.Image != nil {
			url := s.ImageURL(*p.Image)
			views[i].ImageURL = &url
		}
	}
	return views, nil
}
