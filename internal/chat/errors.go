package chat

import "errors"

// Sentinel errors for the chat subsystem. Handlers map these onto HTTP
// statuses; everything transient is wrapped in ErrDirectoryUnavailable or
// ErrHistoryUnavailable so callers know a retry with backoff is appropriate.
var (
	// ErrDirectoryUnavailable wraps data-access failures while listing
	// channels. Callers may keep showing the last successfully loaded list.
	ErrDirectoryUnavailable = errors.New("channel directory unavailable")

	// ErrHistoryUnavailable wraps data-access failures while loading
	// message history.
	ErrHistoryUnavailable = errors.New("message history unavailable")

	// ErrNotAMember means the user holds no membership on the channel.
	ErrNotAMember = errors.New("not a member of this channel")

	// ErrPostingForbidden means the membership exists but carries
	// can_post=false. Rejected before any write is attempted.
	ErrPostingForbidden = errors.New("posting is not permitted in this channel")

	// ErrEmptyMessage means a text message had no content after trimming.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrBadReply means the reply-to id does not name a message in the
	// same channel.
	ErrBadReply = errors.New("reply target is not in this channel")

	// ErrMessageNotFound means the message id names no stored message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrChannelNotFound means the channel id names no stored channel.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelArchived means the channel exists but is archived.
	ErrChannelArchived = errors.New("channel is archived")

	// ErrReactionConflict means a reaction toggle lost a concurrent write
	// race twice in a row.
	ErrReactionConflict = errors.New("reaction update conflicted with a concurrent write")
)
