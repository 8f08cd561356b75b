package tracker

import (
	"context"
	"errors"
)

// ErrNoBoard marks the board capability as unconfigured: neither a
// project number nor a project node ID was supplied, so attach and
// field operations are unavailable.
var ErrNoBoard = errors.New("no project board configured")

// Gateway executes create, update and board intents against the remote
// issue tracker. Implementations carry their own retry policy; callers
// treat any returned error as a per-item failure.
type Gateway interface {
	CreateIssue(ctx context.Context, title, body string) (int64, error)
	UpdateIssue(ctx context.Context, id int64, title, body string) error
	AttachToBoard(ctx context.Context, id int64) (string, error)
	SetField(ctx context.Context, boardItemID, field, value string) error
}
