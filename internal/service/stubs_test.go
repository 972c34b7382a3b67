package service

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	followFn        func(context.Context, uint, uint, *models.Notification) error
	unfollowFn      func(context.Context, uint, uint) error
	sampleFn        func(context.Context, uint, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Follow(ctx context.Context, followerID, followeeID uint, n *models.Notification) error {
	return s.followFn(ctx, followerID, followeeID, n)
}
func (s *userRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.unfollowFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) Sample(ctx context.Context, excludeID uint, limit int) ([]models.User, error) {
	return s.sampleFn(ctx, excludeID, limit)
}

func noopUserRepo() *userRepoStub {
	notFound := func(_ context.Context, _ string) (*models.User, error) {
		return nil, models.NewNotFoundError("User", nil)
	}
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: notFound,
		getByEmailFn:    notFound,
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		followFn:        func(_ context.Context, _, _ uint, _ *models.Notification) error { return nil },
		unfollowFn:      func(_ context.Context, _, _ uint) error { return nil },
		sampleFn:        func(_ context.Context, _ uint, _ int) ([]models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context) ([]models.Post, error)
	listByAuthorsFn func(context.Context, []uint) ([]models.Post, error)
	listByUserFn    func(context.Context, uint) ([]models.Post, error)
	listLikedByFn   func(context.Context, uint) ([]models.Post, error)
	addCommentFn    func(context.Context, *models.Comment) error
	likeFn          func(context.Context, uint, uint, *models.Notification) error
	unlikeFn        func(context.Context, uint, uint) error
	likesFn         func(context.Context, uint) ([]uint, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]models.Post, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) ListByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error) {
	return s.listByAuthorsFn(ctx, authorIDs)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) ListLikedBy(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.listLikedByFn(ctx, userID)
}
func (s *postRepoStub) AddComment(ctx context.Context, comment *models.Comment) error {
	return s.addCommentFn(ctx, comment)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint, n *models.Notification) error {
	return s.likeFn(ctx, userID, postID, n)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) Likes(ctx context.Context, postID uint) ([]uint, error) {
	return s.likesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		listFn:          func(_ context.Context) ([]models.Post, error) { return []models.Post{}, nil },
		listByAuthorsFn: func(_ context.Context, _ []uint) ([]models.Post, error) { return []models.Post{}, nil },
		listByUserFn:    func(_ context.Context, _ uint) ([]models.Post, error) { return []models.Post{}, nil },
		listLikedByFn:   func(_ context.Context, _ uint) ([]models.Post, error) { return []models.Post{}, nil },
		addCommentFn:    func(_ context.Context, _ *models.Comment) error { return nil },
		likeFn:          func(_ context.Context, _, _ uint, _ *models.Notification) error { return nil },
		unlikeFn:        func(_ context.Context, _, _ uint) error { return nil },
		likesFn:         func(_ context.Context, _ uint) ([]uint, error) { return []uint{}, nil },
	}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	listForRecipientFn      func(context.Context, uint) ([]models.Notification, error)
	markAllReadFn           func(context.Context, uint) error
	getByIDFn               func(context.Context, uint) (*models.Notification, error)
	deleteFn                func(context.Context, uint) error
	deleteAllForRecipientFn func(context.Context, uint) error
}

func (s *notificationRepoStub) ListForRecipient(ctx context.Context, toID uint) ([]models.Notification, error) {
	return s.listForRecipientFn(ctx, toID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, toID uint) error {
	return s.markAllReadFn(ctx, toID)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *notificationRepoStub) DeleteAllForRecipient(ctx context.Context, toID uint) error {
	return s.deleteAllForRecipientFn(ctx, toID)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		listForRecipientFn: func(_ context.Context, _ uint) ([]models.Notification, error) { return []models.Notification{}, nil },
		markAllReadFn:      func(_ context.Context, _ uint) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Notification, error) {
			return &models.Notification{ID: id}, nil
		},
		deleteFn:                func(_ context.Context, _ uint) error { return nil },
		deleteAllForRecipientFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// MockUploader is a mock of media.Uploader.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, payload string) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) Destroy(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

// MockPublisher is a mock of NotificationPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, n *models.Notification) {
	m.Called(ctx, n)
}

// assertAppError asserts that err is an AppError with the given code and message.
func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}
