package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/blob"
)

// ErrProfileNotFound indicates the snapshot could not be resolved to a
// usable profile record. The wrapped message carries the diagnostic
// reason for operator triage.
var ErrProfileNotFound = errors.New("profile not found")

// Fetcher resolves snapshot identifiers to canonical profiles via the
// blob store.
type Fetcher struct {
	blob      blob.Client
	keyPrefix string
}

// NewFetcher creates a Fetcher. keyPrefix is prepended to snapshot keys,
// typically "public/".
func NewFetcher(client blob.Client, keyPrefix string) *Fetcher {
	return &Fetcher{blob: client, keyPrefix: keyPrefix}
}

// Key returns the blob key for a snapshot ID.
func (f *Fetcher) Key(snapshotID string) string {
	return fmt.Sprintf("%s%s.json", f.keyPrefix, snapshotID)
}

// Fetch resolves a snapshot (plus an optional disambiguating URL) to a
// single normalized profile. All missing-data and malformed-payload
// cases resolve to ErrProfileNotFound with a reason; Fetch never panics
// on bad upstream data.
func (f *Fetcher) Fetch(ctx context.Context, snapshotID, url string) (*model.CanonicalProfile, error) {
	if snapshotID == "" {
		return nil, eris.Wrap(ErrProfileNotFound, "snapshot id is empty")
	}

	key := f.Key(snapshotID)
	log := zap.L().With(zap.String("snapshot_id", snapshotID), zap.String("key", key))

	data, err := f.blob.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, eris.Wrapf(ErrProfileNotFound, "snapshot %s does not exist", snapshotID)
		}
		return nil, eris.Wrapf(err, "profile: fetch snapshot %s", snapshotID)
	}
	if len(data) == 0 {
		return nil, eris.Wrapf(ErrProfileNotFound, "snapshot %s is empty", snapshotID)
	}
	log.Debug("profile: snapshot fetched", zap.Int("bytes", len(data)))

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, eris.Wrapf(ErrProfileNotFound, "snapshot %s is not valid JSON: %v", snapshotID, err)
	}
	if payload == nil {
		return nil, eris.Wrapf(ErrProfileNotFound, "snapshot %s contains null data", snapshotID)
	}

	record, err := selectRecord(payload, url)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot %s", snapshotID)
	}

	p := Normalize(record)
	return &p, nil
}

// selectRecord picks one record from the payload. With a URL the match
// is exact and case-sensitive; without one the first record wins.
func selectRecord(payload any, url string) (any, error) {
	records, ok := payload.([]any)
	if !ok {
		// Single-record snapshot.
		if url != "" {
			if recordURL(payload) != url {
				return nil, eris.Wrapf(ErrProfileNotFound, "no record matches url %s", url)
			}
		}
		return payload, nil
	}

	if len(records) == 0 {
		return nil, eris.Wrap(ErrProfileNotFound, "snapshot contains no records")
	}

	if url == "" {
		return records[0], nil
	}

	for _, r := range records {
		if recordURL(r) == url {
			return r, nil
		}
	}
	return nil, eris.Wrapf(ErrProfileNotFound, "no record matches url %s", url)
}

func recordURL(record any) string {
	m, ok := record.(map[string]any)
	if !ok {
		return ""
	}
	u, _ := m["url"].(string)
	return u
}
