package mailchimp

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// pageSize is how many members/segments are fetched per request when
// walking a full list.
const pageSize = 1000

// Client defines the operations the sync core needs from the remote
// mailing-list service.
type Client interface {
	// ListMembers fetches every member of the list.
	ListMembers(ctx context.Context) ([]Member, error)
	// UpsertMember creates or full-replaces a member, keyed by email.
	UpsertMember(ctx context.Context, member Member) (Member, error)
	// RemoveMember deletes the member with the given email address.
	RemoveMember(ctx context.Context, email string) error
	// ListSegments fetches every segment of the list.
	ListSegments(ctx context.Context) ([]Segment, error)
	// CreateSegment creates a static segment with the given members.
	CreateSegment(ctx context.Context, name string, emails []string) (Segment, error)
	// UpdateSegment renames a segment and replaces its member list.
	UpdateSegment(ctx context.Context, id int, name string, emails []string) (Segment, error)
	// DeleteSegment removes a segment.
	DeleteSegment(ctx context.Context, id int) error
}

// APIClient is the HTTP implementation of Client against the Mailchimp v3
// API.
type APIClient struct {
	http   *resty.Client
	listID string
}

// Option customizes an APIClient.
type Option func(*APIClient)

// WithBaseURL overrides the API base URL. Used in tests against a local
// HTTP server.
func WithBaseURL(url string) Option {
	return func(c *APIClient) {
		c.http.SetBaseURL(url)
	}
}

// NewAPIClient creates a Mailchimp API client. The datacenter is parsed
// from the API key suffix (e.g. "xxxx-us14" talks to us14.api.mailchimp.com).
func NewAPIClient(apiKey, listID string, opts ...Option) (*APIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mailchimp: API key is required")
	}
	if listID == "" {
		return nil, fmt.Errorf("mailchimp: list id is required")
	}

	idx := strings.LastIndex(apiKey, "-")
	if idx < 0 || idx == len(apiKey)-1 {
		return nil, fmt.Errorf("mailchimp: API key has no datacenter suffix")
	}
	dc := apiKey[idx+1:]

	http := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc)).
		SetBasicAuth("anystring", apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)

	client := &APIClient{http: http, listID: listID}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SubscriberHash returns the member key the API uses in URLs: the md5 of
// the lowercased email address.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

type wireMember struct {
	EmailAddress  string         `json:"email_address"`
	UniqueEmailID string         `json:"unique_email_id,omitempty"`
	Status        string         `json:"status,omitempty"`
	StatusIfNew   string         `json:"status_if_new,omitempty"`
	MergeFields   map[string]any `json:"merge_fields,omitempty"`
}

type wireMemberList struct {
	Members    []wireMember `json:"members"`
	TotalItems int          `json:"total_items"`
}

type wireSegment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// wireSegmentWrite deliberately lacks omitempty on static_segment: an empty
// desired membership must still be sent, otherwise stale members survive.
type wireSegmentWrite struct {
	Name          string   `json:"name"`
	StaticSegment []string `json:"static_segment"`
}

type wireSegmentList struct {
	Segments   []wireSegment `json:"segments"`
	TotalItems int           `json:"total_items"`
}

type wireError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (m wireMember) toMember() Member {
	return Member{
		Email:    m.EmailAddress,
		UniqueID: m.UniqueEmailID,
		Status:   m.Status,
		Merge:    MergeFieldsFromBag(m.MergeFields),
	}
}

func toBagAny(bag map[string]string) map[string]any {
	out := make(map[string]any, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

// ListMembers walks the members collection page by page until the reported
// total is reached.
func (c *APIClient) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	offset := 0
	for {
		var page wireMemberList
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"count":  strconv.Itoa(pageSize),
				"offset": strconv.Itoa(offset),
			}).
			SetResult(&page).
			SetError(&wireError{}).
			Get(fmt.Sprintf("/lists/%s/members", c.listID))
		if err != nil {
			return nil, fmt.Errorf("mailchimp: list members: %w", err)
		}
		if resp.IsError() {
			return nil, apiError("list members", resp)
		}

		for _, wm := range page.Members {
			members = append(members, wm.toMember())
		}
		offset += len(page.Members)
		if len(page.Members) < pageSize || offset >= page.TotalItems {
			return members, nil
		}
	}
}

// UpsertMember PUTs the member keyed by its subscriber hash, creating it if
// absent and replacing its merge fields if present.
func (c *APIClient) UpsertMember(ctx context.Context, member Member) (Member, error) {
	body := wireMember{
		EmailAddress: member.Email,
		Status:       member.Status,
		StatusIfNew:  StatusSubscribed,
		MergeFields:  toBagAny(member.Merge.Bag()),
	}
	if body.Status == "" {
		body.Status = StatusSubscribed
	}

	var result wireMember
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&wireError{}).
		Put(fmt.Sprintf("/lists/%s/members/%s", c.listID, SubscriberHash(member.Email)))
	if err != nil {
		return Member{}, fmt.Errorf("mailchimp: upsert member: %w", err)
	}
	if resp.IsError() {
		return Member{}, apiError("upsert member", resp)
	}
	return result.toMember(), nil
}

// RemoveMember deletes the member record for the given email address.
func (c *APIClient) RemoveMember(ctx context.Context, email string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&wireError{}).
		Delete(fmt.Sprintf("/lists/%s/members/%s", c.listID, SubscriberHash(email)))
	if err != nil {
		return fmt.Errorf("mailchimp: remove member: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return apiError("remove member", resp)
	}
	return nil
}

// ListSegments walks the segments collection page by page.
func (c *APIClient) ListSegments(ctx context.Context) ([]Segment, error) {
	var segments []Segment
	offset := 0
	for {
		var page wireSegmentList
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"count":  strconv.Itoa(pageSize),
				"offset": strconv.Itoa(offset),
			}).
			SetResult(&page).
			SetError(&wireError{}).
			Get(fmt.Sprintf("/lists/%s/segments", c.listID))
		if err != nil {
			return nil, fmt.Errorf("mailchimp: list segments: %w", err)
		}
		if resp.IsError() {
			return nil, apiError("list segments", resp)
		}

		for _, ws := range page.Segments {
			segments = append(segments, Segment{ID: ws.ID, Name: ws.Name})
		}
		offset += len(page.Segments)
		if len(page.Segments) < pageSize || offset >= page.TotalItems {
			return segments, nil
		}
	}
}

// CreateSegment creates a static segment seeded with the given emails.
func (c *APIClient) CreateSegment(ctx context.Context, name string, emails []string) (Segment, error) {
	var result wireSegment
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wireSegmentWrite{Name: name, StaticSegment: emptyNotNil(emails)}).
		SetResult(&result).
		SetError(&wireError{}).
		Post(fmt.Sprintf("/lists/%s/segments", c.listID))
	if err != nil {
		return Segment{}, fmt.Errorf("mailchimp: create segment: %w", err)
	}
	if resp.IsError() {
		return Segment{}, apiError("create segment", resp)
	}
	return Segment{ID: result.ID, Name: result.Name, Emails: emails}, nil
}

// UpdateSegment renames a segment and fully replaces its static membership.
func (c *APIClient) UpdateSegment(ctx context.Context, id int, name string, emails []string) (Segment, error) {
	var result wireSegment
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wireSegmentWrite{Name: name, StaticSegment: emptyNotNil(emails)}).
		SetResult(&result).
		SetError(&wireError{}).
		Patch(fmt.Sprintf("/lists/%s/segments/%d", c.listID, id))
	if err != nil {
		return Segment{}, fmt.Errorf("mailchimp: update segment: %w", err)
	}
	if resp.IsError() {
		return Segment{}, apiError("update segment", resp)
	}
	return Segment{ID: result.ID, Name: result.Name, Emails: emails}, nil
}

// DeleteSegment removes a segment by id.
func (c *APIClient) DeleteSegment(ctx context.Context, id int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&wireError{}).
		Delete(fmt.Sprintf("/lists/%s/segments/%d", c.listID, id))
	if err != nil {
		return fmt.Errorf("mailchimp: delete segment: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return apiError("delete segment", resp)
	}
	return nil
}

// emptyNotNil keeps the static_segment key present in JSON even when the
// desired membership is empty; omitting it would leave stale members.
func emptyNotNil(emails []string) []string {
	if emails == nil {
		return []string{}
	}
	return emails
}

func apiError(op string, resp *resty.Response) error {
	if we, ok := resp.Error().(*wireError); ok && we.Detail != "" {
		return fmt.Errorf("mailchimp: %s: %s (%d): %s", op, we.Title, we.Status, we.Detail)
	}
	return fmt.Errorf("mailchimp: %s: unexpected status %d", op, resp.StatusCode())
}
