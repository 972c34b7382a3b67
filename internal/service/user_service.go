package service

import (
	"context"
	"log/slog"
	"strings"

	"murmur/internal/media"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	suggestionSampleSize = 10
	maxSuggestions       = 4
)

type UserService struct {
	users     repository.UserRepository
	uploader  media.Uploader
	publisher NotificationPublisher
}

// UpdateProfileInput is the body of POST /api/users/update. Empty fields
// leave the stored value unchanged.
type UpdateProfileInput struct {
	UserID          uint
	FullName        string
	Email           string
	Username        string
	CurrentPassword string
	NewPassword     string
	Bio             string
	Link            string
	ProfileImg      string
	CoverImg        string
}

// NewUserService returns a UserService. publisher may be nil.
func NewUserService(users repository.UserRepository, uploader media.Uploader, publisher NotificationPublisher) *UserService {
	return &UserService{users: users, uploader: uploader, publisher: publisher}
}

// Profile returns the public account for username.
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

// FollowUnfollow toggles whether actorID follows targetID and returns the
// message for the resulting state.
func (s *UserService) FollowUnfollow(ctx context.Context, actorID, targetID uint) (msg string, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService.FollowUnfollow",
		attribute.Int64("actor.id", int64(actorID)), attribute.Int64("target.id", int64(targetID)))
	defer func() { observability.EndSpan(span, err) }()

	if actorID == targetID {
		return "", models.NewValidationError("You can't follow/unfollow yourself")
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return "", err
	}

	if actor.IsFollowing(targetID) {
		if err := s.users.Unfollow(ctx, actorID, targetID); err != nil {
			return "", err
		}
		observability.SocialActions.WithLabelValues("unfollow").Inc()
		return "User unfollowed successfully", nil
	}

	n := &models.Notification{FromID: actorID, ToID: targetID, Type: models.NotificationFollow}
	if err := s.users.Follow(ctx, actorID, targetID, n); err != nil {
		return "", err
	}
	observability.SocialActions.WithLabelValues("follow").Inc()

	if s.publisher != nil {
		n.From = actorOf(actor)
		s.publisher.Publish(ctx, n)
	}
	return "User followed successfully", nil
}

// Suggested returns up to four random accounts userID does not follow yet.
// Fewer are returned when the sample is mostly accounts already followed.
func (s *UserService) Suggested(ctx context.Context, userID uint) ([]models.User, error) {
	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sample, err := s.users.Sample(ctx, userID, suggestionSampleSize)
	if err != nil {
		return nil, err
	}

	suggested := make([]models.User, 0, maxSuggestions)
	for i := range sample {
		if me.IsFollowing(sample[i].ID) {
			continue
		}
		suggested = append(suggested, *sanitize(&sample[i]))
		if len(suggested) == maxSuggestions {
			break
		}
	}
	return suggested, nil
}

// UpdateProfile applies in to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if (in.CurrentPassword == "") != (in.NewPassword == "") {
		return nil, models.NewValidationError("Please provide both current password and new password")
	}
	if in.CurrentPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
			return nil, models.NewValidationError("Current password is incorrect")
		}
		if err := validation.ValidatePassword(in.NewPassword); err != nil {
			return nil, models.NewValidationError(passwordTooShort)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	if in.Email != "" && in.Email != user.Email {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError("Invalid email format")
		}
	}

	if err := s.ensureAvailable(ctx, user.ID, in.Username, in.Email); err != nil {
		return nil, err
	}

	// New images are uploaded first; the ones they supersede are destroyed
	// only once the account row has been saved.
	var uploaded, superseded []string
	for _, img := range []struct {
		payload string
		field   *string
	}{
		{in.ProfileImg, &user.ProfileImg},
		{in.CoverImg, &user.CoverImg},
	} {
		if img.payload == "" {
			continue
		}
		url, err := s.uploadImage(ctx, img.payload)
		if err != nil {
			s.destroyImages(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, url)
		if *img.field != "" {
			superseded = append(superseded, *img.field)
		}
		*img.field = url
	}

	user.FullName = firstNonEmpty(in.FullName, user.FullName)
	user.Email = firstNonEmpty(in.Email, user.Email)
	user.Username = firstNonEmpty(in.Username, user.Username)
	user.Bio = firstNonEmpty(in.Bio, user.Bio)
	user.Link = firstNonEmpty(in.Link, user.Link)

	if err := s.users.Update(ctx, user); err != nil {
		s.destroyImages(ctx, uploaded)
		return nil, err
	}
	s.destroyImages(ctx, superseded)
	return sanitize(user), nil
}

// ensureAvailable rejects a username or email held by another account.
func (s *UserService) ensureAvailable(ctx context.Context, userID uint, username, email string) error {
	checks := []struct {
		value   string
		lookup  func(context.Context, string) (*models.User, error)
		message string
	}{
		{username, s.users.GetByUsername, "Username is already taken"},
		{email, s.users.GetByEmail, "Email is already taken"},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		other, err := c.lookup(ctx, c.value)
		if err != nil {
			if models.IsNotFound(err) {
				continue
			}
			return err
		}
		if other.ID != userID {
			return models.NewConflictError(c.message)
		}
	}
	return nil
}

func (s *UserService) uploadImage(ctx context.Context, payload string) (string, error) {
	if s.uploader == nil {
		return "", models.NewValidationError("Image uploads are not configured")
	}
	return s.uploader.Upload(ctx, payload)
}

// destroyImages removes urls. A failed destroy leaves an orphaned file and is
// only logged.
func (s *UserService) destroyImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.Destroy(ctx, url); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to destroy image",
				slog.String("url", url), slog.String("error", err.Error()))
		}
	}
}

func firstNonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
