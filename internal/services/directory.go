package services

import (
	"context"
	"fmt"

	"global-app/internal/models"
	"global-app/internal/storage"
)

// profilesByUser loads the profiles of the given users keyed by user id.
// Users without a profile are simply absent from the map.
func profilesByUser(ctx context.Context, store storage.Store, userIDs []uint) (map[uint]*models.Profile, error) {
	profiles := make(map[uint]*models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}
	list, err := store.Profiles().GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for i := range list {
		profiles[list[i].UserID] = &list[i]
	}
	return profiles, nil
}

func avatarOf(profiles map[uint]*models.Profile, userID uint) string {
	if p, ok := profiles[userID]; ok {
		return p.Avatar
	}
	return ""
}

// basicInfos projects users into their public shape with avatars.
func basicInfos(ctx context.Context, store storage.Store, users []models.User) ([]models.UserBasicInfo, error) {
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	profiles, err := profilesByUser(ctx, store, ids)
	if err != nil {
		return nil, err
	}
	infos := make([]models.UserBasicInfo, len(users))
	for i := range users {
		infos[i] = users[i].BasicInfo(avatarOf(profiles, users[i].ID))
	}
	return infos, nil
}

// basicInfosByID resolves ids to public user info, keyed by id. Unknown ids are skipped.
func basicInfosByID(ctx context.Context, store storage.Store, ids []uint) (map[uint]models.UserBasicInfo, error) {
	out := make(map[uint]models.UserBasicInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := store.Users().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	infos, err := basicInfos(ctx, store, users)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		out[info.ID] = info
	}
	return out, nil
}
