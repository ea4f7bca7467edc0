package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%s"
	DocumentKeyPrefix = "document:%s"
	PopularTagsKey    = "tags:popular"
)

const (
	UserTTL        = 5 * time.Minute
	DocumentTTL    = 10 * time.Minute
	PopularTagsTTL = 2 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func DocumentKey(docID string) string {
	return fmt.Sprintf(DocumentKeyPrefix, docID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateDocument(ctx context.Context, docID string) {
	Invalidate(ctx, DocumentKey(docID))
}

func InvalidatePopularTags(ctx context.Context) {
	Invalidate(ctx, PopularTagsKey)
}
