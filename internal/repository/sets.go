package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// loadUserSets fills Followers, Following and LikedPosts from the edge
// tables. The same account may appear several times in users.
func loadUserSets(ctx context.Context, db *gorm.DB, users ...*models.User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[uint][]*models.User, len(users))
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		u.Followers, u.Following, u.LikedPosts = []uint{}, []uint{}, []uint{}
		if _, seen := byID[u.ID]; !seen {
			ids = append(ids, u.ID)
		}
		byID[u.ID] = append(byID[u.ID], u)
	}

	var follows []models.Follow
	err := db.WithContext(ctx).
		Where("follower_id IN ? OR followee_id IN ?", ids, ids).
		Order("id").
		Find(&follows).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	for _, f := range follows {
		for _, u := range byID[f.FollowerID] {
			u.Following = append(u.Following, f.FolloweeID)
		}
		for _, u := range byID[f.FolloweeID] {
			u.Followers = append(u.Followers, f.FollowerID)
		}
	}

	var likes []models.Like
	if err := db.WithContext(ctx).Where("user_id IN ?", ids).Order("id").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		for _, u := range byID[l.UserID] {
			u.LikedPosts = append(u.LikedPosts, l.PostID)
		}
	}
	return nil
}

// loadPostDetails fills each post's like set and the derived sets of its
// author and comment authors. Password hashes are cleared.
func loadPostDetails(ctx context.Context, db *gorm.DB, posts ...*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[uint]*models.Post, len(posts))
	ids := make([]uint, 0, len(posts))
	var people []*models.User
	for _, p := range posts {
		p.Likes = []uint{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
		if p.User != nil {
			p.User.Password = ""
			people = append(people, p.User)
		}
		for i := range p.Comments {
			if c := p.Comments[i].User; c != nil {
				c.Password = ""
				people = append(people, c)
			}
		}
	}

	var likes []models.Like
	if err := db.WithContext(ctx).Where("post_id IN ?", ids).Order("id").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		if p, ok := byID[l.PostID]; ok {
			p.Likes = append(p.Likes, l.UserID)
		}
	}

	if err := loadUserSets(ctx, db, people...); err != nil {
		return err
	}
	for _, p := range posts {
		p.EnsureSets()
	}
	return nil
}
