package sync

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arranf/MailChimpSync/feature/directory"
	"github.com/arranf/MailChimpSync/feature/mailchimp"

	"go.uber.org/zap"
)

// FormatSegmentName encodes a group into its managed segment name,
// "<groupName>-<groupId>". Inverse of ParseSegmentGroupID.
//
// The encoding is knowingly fragile: a group name may itself contain '-',
// which is fine because parsing takes the text after the LAST separator,
// but a name whose final token is an integer (e.g. "Class of 2024-7") can
// make a foreign segment parse to a valid group id. Callers must not assume
// uniqueness of the parsed id without validating against known group ids.
func FormatSegmentName(groupName string, groupID int64) string {
	return fmt.Sprintf("%s-%d", groupName, groupID)
}

// ParseSegmentGroupID extracts the trailing group id from a managed segment
// name. It returns false for names without a '-' or whose trailing token is
// not a non-negative integer; such segments are not managed by the sync.
func ParseSegmentGroupID(segmentName string) (int64, bool) {
	idx := strings.LastIndex(segmentName, "-")
	if idx < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(segmentName[idx+1:], 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// segmentSyncer reconciles remote segments against local group membership.
type segmentSyncer struct {
	api mailchimp.Client
	log *zap.Logger
}

func newSegmentSyncer(api mailchimp.Client, log *zap.Logger) *segmentSyncer {
	return &segmentSyncer{api: api, log: log}
}

// Sync drives every eligible group to its desired segment state, then
// purges orphaned segments. Runs only after all member upserts: desired
// membership is computed from post-sync local eligibility, not remote
// state. Per-segment failures are recorded and do not stop the rest.
func (s *segmentSyncer) Sync(ctx context.Context, groups []directory.GroupSnapshot, remote []mailchimp.Segment, result *Result) {
	// Index managed remote segments by their parsed group id. The id is
	// authoritative; the display name is cosmetic and refreshed on update.
	managed := make(map[int64]mailchimp.Segment)
	for _, seg := range remote {
		if id, ok := ParseSegmentGroupID(seg.Name); ok {
			if _, dup := managed[id]; !dup {
				managed[id] = seg
			}
		}
	}

	eligible := make(map[int64]struct{}, len(groups))
	for _, group := range groups {
		eligible[group.ID] = struct{}{}

		name := FormatSegmentName(group.Name, group.ID)
		emails := memberEmails(group)

		if seg, ok := managed[group.ID]; ok {
			// Rename-on-drift: update refreshes both name and membership.
			if _, err := s.api.UpdateSegment(ctx, seg.ID, name, emails); err != nil {
				result.fail("segment", name, fmt.Errorf("error updating segment: %w", err))
				continue
			}
			result.SegmentsUpdated++
		} else {
			if _, err := s.api.CreateSegment(ctx, name, emails); err != nil {
				result.fail("segment", name, fmt.Errorf("error adding segment: %w", err))
				continue
			}
			result.SegmentsCreated++
		}
	}

	// Purge orphans: unparseable names and segments for groups no longer
	// eligible (deleted or deactivated).
	for _, seg := range remote {
		id, ok := ParseSegmentGroupID(seg.Name)
		if ok {
			if _, want := eligible[id]; want {
				continue
			}
		}
		if err := s.api.DeleteSegment(ctx, seg.ID); err != nil {
			result.fail("segment", seg.Name, fmt.Errorf("error removing segment: %w", err))
			continue
		}
		s.log.Info("Deleted orphaned segment", zap.String("name", seg.Name), zap.Int("id", seg.ID))
		result.SegmentsDeleted++
	}
}

// memberEmails returns the sorted, de-duplicated email set of a group's
// eligible members. Sorted for deterministic payloads across runs.
func memberEmails(group directory.GroupSnapshot) []string {
	set := make(map[string]struct{}, len(group.People))
	for i := range group.People {
		if email := group.People[i].Email; email != "" {
			set[email] = struct{}{}
		}
	}
	emails := make([]string, 0, len(set))
	for email := range set {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
