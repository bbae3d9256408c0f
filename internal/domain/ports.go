package domain

import (
	"context"
	"errors"
	"fmt"
)

// NoticeSource is the remote notices API.
type NoticeSource interface {
	ListNotices(ctx context.Context, q NoticeQuery) (NoticePage, error)
	SearchLive(ctx context.Context, q NoticeQuery) (NoticePage, error)
	Trends(ctx context.Context) (Trends, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("not found")

// APIError is a non-success response from the notices API. Detail carries
// the server-provided message when there was one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("notices api: status %d", e.Status)
	}
	return fmt.Sprintf("notices api: status %d: %s", e.Status, e.Detail)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}
