package eventarchive

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const contentTypeJSON = "application/json"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) error
}

// Archive keeps verified webhook payloads in object storage, one object per
// event, partitioned by day.
type Archive struct {
	store  ObjectWriter
	prefix string
	now    func() time.Time
}

type Entry struct {
	EventID   string
	EventType string
	Payload   []byte
}

func New(store ObjectWriter, prefix string) *Archive {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "webhooks"
	}
	return &Archive{
		store:  store,
		prefix: prefix,
		now:    time.Now,
	}
}

func (a *Archive) Store(ctx context.Context, entry Entry) (string, error) {
	if a == nil || a.store == nil {
		return "", fmt.Errorf("archive store is nil")
	}
	if len(entry.Payload) == 0 {
		return "", fmt.Errorf("archive payload is empty")
	}

	key := a.ObjectKey(entry.EventID)
	meta := map[string]string{}
	if entry.EventType != "" {
		meta["event-type"] = entry.EventType
	}
	if err := a.store.PutObject(ctx, key, entry.Payload, contentTypeJSON, meta); err != nil {
		return "", fmt.Errorf("archive event %s: %w", entry.EventID, err)
	}
	return key, nil
}

func (a *Archive) ObjectKey(eventID string) string {
	id := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(eventID), "_")
	if id == "" {
		id = fmt.Sprintf("unknown-%d", a.now().UnixNano())
	}
	return fmt.Sprintf("%s/%s/%s.json", a.prefix, a.now().UTC().Format("2006/01/02"), id)
}
