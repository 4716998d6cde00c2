package domain

import "context"

// Notifier delivers one text message to the user who submitted the photo. Messages are sent in program order and
// never edited or retracted.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NotifierFunc allows to use an ordinary function as a Notifier.
type NotifierFunc func(ctx context.Context, text string) error

func (f NotifierFunc) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}

// VideoFinder looks up a cooking video for the dish. Optional: the pipeline works without it.
type VideoFinder interface {
	// FindVideo returns the URL of a relevant video, or an empty string if nothing was found.
	FindVideo(ctx context.Context, query string) (string, error)
}
