package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recentSyncWindow absorbs duplicate triggers of the same run: an upsert is
// skipped entirely when the person's link was written this recently. Fixed
// by design, not configurable per call.
const recentSyncWindow = 5 * time.Minute

// progressInterval is how often the remote pass logs progress.
const progressInterval = 200

// Engine orchestrates one full reconciliation run. It is not reentrant;
// the caller (scheduler or Service) must ensure at most one concurrent run
// per list.
type Engine struct {
	cfg       Config
	api       mailchimp.Client
	directory Directory
	links     LinkStore
	onboarder Onboarder
	log       *zap.Logger

	// now is swappable for tests of the recent-sync window.
	now func() time.Time
}

// NewEngine wires a reconciliation engine.
func NewEngine(cfg Config, api mailchimp.Client, dir Directory, links LinkStore, onboarder Onboarder, log *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		api:       api,
		directory: dir,
		links:     links,
		onboarder: onboarder,
		log:       log,
		now:       time.Now,
	}
}

// Run performs a full reconciliation: pull both sides, resolve identities,
// apply member deltas, push locally-eligible people never seen remotely,
// then reconcile segments. Configuration and baseline fetch errors are
// fatal; per-member and per-segment errors are recorded and the run
// continues. The returned Result is valid even when the error is non-nil.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync configuration: %w", err)
	}

	result := &Result{RunID: uuid.NewString(), StartedAt: e.now()}
	log := e.log.With(zap.String("run_id", result.RunID), zap.String("list_id", e.cfg.ListID))
	log.Info("Starting reconciliation run")

	// Baseline snapshots. Without both, no partial run proceeds.
	segments, err := e.api.ListSegments(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch segments: %w", err)
	}
	members, err := e.api.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch list members: %w", err)
	}
	log.Info("Fetched remote snapshot",
		zap.Int("members", len(members)),
		zap.Int("segments", len(segments)),
	)

	seen := e.syncFromRemote(ctx, log, members, result)

	groups, err := e.directory.EligibleGroups(ctx, e.cfg.GroupTypeID)
	if err != nil {
		return nil, fmt.Errorf("unable to load eligible groups: %w", err)
	}

	e.syncToRemote(ctx, log, groups, seen, result)

	// Segment membership requires the final eligible-person set, so this
	// phase must not start until all member upserts completed.
	newSegmentSyncer(e.api, log).Sync(ctx, groups, segments, result)

	result.FinishedAt = e.now()
	log.Info("Reconciliation run finished",
		zap.Int("synced", result.Synced),
		zap.Int("removed", result.Removed),
		zap.Int("onboarded", result.Onboarded),
		zap.Int("deferred", result.Deferred),
		zap.Int("failures", len(result.Failures)),
	)
	return result, result.Err()
}

// syncFromRemote walks every remote member, resolves its local identity and
// applies the per-member state machine. It returns the set of person keys
// seen on the remote side so the push phase can compute the complement.
func (e *Engine) syncFromRemote(ctx context.Context, log *zap.Logger, members []mailchimp.Member, result *Result) map[int64]struct{} {
	resolver := NewResolver(e.links, e.directory)
	seen := make(map[int64]struct{})

	processed := 0
	for _, member := range members {
		if skipMemberStatus(member.Status) {
			continue
		}
		processed++
		if processed%progressInterval == 0 {
			log.Debug("Remote pass progress", zap.Int("processed", processed))
		}

		resolution, err := resolver.ResolveMember(ctx, member)
		if err != nil {
			result.fail("member", member.Email, err)
			continue
		}

		if resolution.Kind == Unmatched {
			e.onboardMember(ctx, member, seen, result)
			continue
		}

		person := resolution.Person
		// Seen is marked before any action: a person whose remote write
		// fails here must not be retried by the push phase, which would
		// record the same failure twice in one run.
		seen[person.ID] = struct{}{}
		switch {
		case !person.EligibleForSync():
			// Local record opted out or went inactive; the remote copy
			// goes away. Local wins.
			if err := e.api.RemoveMember(ctx, member.Email); err != nil {
				result.fail("member", member.Email, fmt.Errorf("failed to remove member: %w", err))
				continue
			}
			result.Removed++

		case person.Email != member.Email:
			// Email drift: the directory's address is authoritative.
			// Remove the record under the former email, then push fresh.
			if err := e.api.RemoveMember(ctx, member.Email); err != nil {
				result.fail("member", member.Email, fmt.Errorf("failed to remove member: %w", err))
				continue
			}
			result.Removed++
			if _, err := e.upsert(ctx, person, resolution.Link); err != nil {
				result.fail("person", person.Email, err)
				continue
			}
			result.Synced++

		case e.isSyncNeeded(person, member):
			if _, err := e.upsert(ctx, person, resolution.Link); err != nil {
				result.fail("person", person.Email, err)
				continue
			}
			result.Synced++
		}
	}

	return seen
}

// onboardMember handles an unmatched remote member: create locally or defer
// to the workflow, per configuration. Exactly one of the two happens.
func (e *Engine) onboardMember(ctx context.Context, member mailchimp.Member, seen map[int64]struct{}, result *Result) {
	person, err := e.onboarder.Onboard(ctx, member)
	if err != nil {
		result.fail("member", member.Email, err)
		return
	}
	if person == nil {
		// Deferred to the external workflow; nothing local to link yet.
		result.Deferred++
		return
	}
	result.Onboarded++

	if _, err := e.upsert(ctx, person, nil); err != nil {
		result.fail("person", person.Email, err)
		return
	}
	result.Synced++
	seen[person.ID] = struct{}{}
}

// syncToRemote pushes every locally-eligible person never seen on the
// remote side through the same upsert path as a creation.
func (e *Engine) syncToRemote(ctx context.Context, log *zap.Logger, groups []directory.GroupSnapshot, seen map[int64]struct{}, result *Result) {
	pushed := make(map[int64]struct{})
	for _, group := range groups {
		for i := range group.People {
			person := group.People[i]
			if _, ok := seen[person.ID]; ok {
				continue
			}
			if _, ok := pushed[person.ID]; ok {
				continue
			}
			pushed[person.ID] = struct{}{}

			if _, err := e.upsert(ctx, &person, nil); err != nil {
				result.fail("person", person.FullName(), err)
				continue
			}
			result.Synced++
		}
	}
	if len(pushed) > 0 {
		log.Info("Pushed people missing from remote list", zap.Int("count", len(pushed)))
	}
}

// upsert pushes one person to the remote list and persists the link. It is
// the single write path for members: creation, refresh and email change all
// funnel through here. The recent-sync window check runs before any remote
// call so duplicate triggers cost nothing.
func (e *Engine) upsert(ctx context.Context, person *directory.Person, link *Link) (*Link, error) {
	var err error
	if link == nil {
		link, err = e.links.ByPersonKey(ctx, person.ID)
		if err != nil {
			return nil, err
		}
	}
	if link != nil && e.now().Sub(link.LastSyncedAt) < recentSyncWindow {
		// Synced recently; absorb the duplicate trigger.
		return link, nil
	}

	updated, err := e.api.UpsertMember(ctx, memberFor(person, e.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to add or update person %s: %w", person.FullName(), err)
	}

	if link == nil {
		link = &Link{PersonKey: person.ID}
	}
	link.Email = person.Email
	if updated.UniqueID != "" {
		link.RemoteID = updated.UniqueID
	}
	link.LastSyncedAt = e.now()
	if err := e.links.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// isSyncNeeded reports whether the person's freshly computed change hash
// differs from the one stored on the remote member. A missing remote hash
// always forces a write.
func (e *Engine) isSyncNeeded(person *directory.Person, member mailchimp.Member) bool {
	fresh := MergeFieldsFor(person, e.now())
	return member.Merge.Hash == "" || member.Merge.Hash != fresh.Hash
}

// skipMemberStatus filters remote members that are not part of the
// reconciliation: unsubscribed and archived members are Mailchimp's to
// keep, and a missing status means a malformed record.
func skipMemberStatus(status string) bool {
	switch status {
	case mailchimp.StatusUnsubscribed, mailchimp.StatusArchived, "":
		return true
	default:
		return false
	}
}
