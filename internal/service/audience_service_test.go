package service_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlayer/newsletter-service/internal/model"
	"github.com/streetlayer/newsletter-service/internal/repository"
	"github.com/streetlayer/newsletter-service/internal/service"
)

// fakeSubscriberRepo mirrors the store contract: default status filter is
// "subscribed", tags are conjunctive containment.
type fakeSubscriberRepo struct {
	subs []model.Subscriber
}

func (f *fakeSubscriberRepo) ListEmails(statuses, tags []string) ([]string, error) {
	out := []string{}
	for _, s := range f.subs {
		if len(statuses) == 0 {
			if s.Status != model.SubscriberSubscribed {
				continue
			}
		} else if !contains(statuses, s.Status) {
			continue
		}
		if !containsAll(s.Tags, tags) {
			continue
		}
		out = append(out, strings.ToLower(s.Email))
	}
	return out, nil
}

func (f *fakeSubscriberRepo) StatusByEmail(emails []string) (map[string]string, error) {
	statuses := map[string]string{}
	for _, s := range f.subs {
		for _, email := range emails {
			if strings.EqualFold(s.Email, email) {
				statuses[strings.ToLower(s.Email)] = s.Status
			}
		}
	}
	return statuses, nil
}

func (f *fakeSubscriberRepo) UpdateStatusByEmail(email, status string) error {
	for i := range f.subs {
		if strings.EqualFold(f.subs[i].Email, email) {
			f.subs[i].Status = status
		}
	}
	return nil
}

var _ repository.SubscriberRepositoryInterface = (*fakeSubscriberRepo)(nil)

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !contains(have, w) {
			return false
		}
	}
	return true
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

// ====================== Normalization ======================

func TestNormalizeEmails(t *testing.T) {
	got := service.NormalizeEmails([]string{" A@x.com", "a@x.com ", "B@Y.com", "", "b@y.com"})
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, got)
}

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"first.last@shop.example.co", true},
		{"", false},
		{"no-at-sign", false},
		{"@x.com", false},
		{"a@", false},
		{"a@@x.com", false},
		{"a b@x.com", false},
		{"a@nodot", false},
		{"a@.com", false},
		{"a@x.com.", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, service.IsValidEmail(tc.email), tc.email)
	}
}

// ====================== Resolution ======================

func TestResolveAudience_SnapshotWins(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)
	repo.ReplaceRecipientSnapshot(c.ID, []string{"snap@x.com"})

	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "live@x.com", Status: model.SubscriberSubscribed},
	}}
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: subs}

	emails, err := svc.ResolveAudience(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"snap@x.com"}, emails)
}

func TestResolveAudience_LiveFallback(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)
	c.TargetTags = []string{"vip"}

	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "vip@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip"}},
		{Email: "plain@x.com", Status: model.SubscriberSubscribed},
		{Email: "gone@x.com", Status: model.SubscriberUnsubscribed, Tags: []string{"vip"}},
	}}
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: subs}

	emails, err := svc.ResolveAudience(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip@x.com"}, emails)
}

func TestResolveAudience_TagFilterIsConjunctive(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)
	c.TargetTags = []string{"vip", "sale"}

	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "vip-only@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip"}},
		{Email: "both@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip", "sale"}},
	}}
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: subs}

	emails, err := svc.ResolveAudience(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"both@x.com"}, emails)
}

// ====================== Validate target ======================

func TestValidateTarget_DisjointAndCovering(t *testing.T) {
	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "a@x.com", Status: model.SubscriberSubscribed},
		{Email: "b@y.com", Status: model.SubscriberPending},
	}}
	svc := &service.AudienceService{SubscriberRepo: subs}

	input := []string{" A@x.com", "a@x.com ", "B@Y.com", "broken", "stranger@z.com"}
	result, err := svc.ValidateTarget(input, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com"}, result.Allowed)
	assert.Equal(t, sorted([]string{"b@y.com", "stranger@z.com"}), sorted(result.NotSubscribed))
	assert.Equal(t, []string{"broken"}, result.Invalid)

	// Pairwise disjoint, union covers the normalized input.
	all := append(append(append([]string{}, result.Allowed...), result.NotSubscribed...), result.Invalid...)
	assert.ElementsMatch(t, service.NormalizeEmails(input), all)
}

func TestValidateTarget_FilterUniverse(t *testing.T) {
	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "vip@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip", "sale"}},
		{Email: "plain@x.com", Status: model.SubscriberSubscribed},
	}}
	svc := &service.AudienceService{SubscriberRepo: subs}

	// plain@x.com is subscribed but outside the tag universe.
	result, err := svc.ValidateTarget([]string{"vip@x.com", "plain@x.com"}, nil, []string{"vip", "sale"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vip@x.com"}, result.Allowed)
	assert.Equal(t, []string{"plain@x.com"}, result.NotSubscribed)
}

func TestValidateTarget_NoCandidatesReturnsUniverse(t *testing.T) {
	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "a@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip"}},
		{Email: "b@x.com", Status: model.SubscriberSubscribed},
		{Email: "c@x.com", Status: model.SubscriberPending, Tags: []string{"vip"}},
	}}
	svc := &service.AudienceService{SubscriberRepo: subs}

	result, err := svc.ValidateTarget(nil, nil, []string{"vip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, result.Allowed)
	assert.Empty(t, result.NotSubscribed)
	assert.Empty(t, result.Invalid)
}

// ====================== Save audience ======================

func TestSaveAudience_NormalizesAndDedupes(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: &fakeSubscriberRepo{}}

	saved, err := svc.SaveAudience(c.ID, []string{" A@x.com", "a@x.com ", "B@Y.com", "junk"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	emails, _ := repo.ListReadyRecipients(c.ID)
	assert.ElementsMatch(t, []string{"a@x.com", "b@y.com"}, emails)
}

func TestSaveAudience_Idempotent(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: &fakeSubscriberRepo{}}

	input := []string{"a@x.com", "b@y.com"}
	first, err := svc.SaveAudience(c.ID, input, nil, nil)
	require.NoError(t, err)
	second, err := svc.SaveAudience(c.ID, input, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	emails, _ := repo.ListReadyRecipients(c.ID)
	assert.ElementsMatch(t, input, emails)
}

func TestSaveAudience_FromFilters(t *testing.T) {
	repo := newFakeCampaignRepo()
	c := repo.addCampaign(model.StatusDraft)

	subs := &fakeSubscriberRepo{subs: []model.Subscriber{
		{Email: "vip@x.com", Status: model.SubscriberSubscribed, Tags: []string{"vip"}},
		{Email: "plain@x.com", Status: model.SubscriberSubscribed},
	}}
	svc := &service.AudienceService{CampaignRepo: repo, SubscriberRepo: subs}

	saved, err := svc.SaveAudience(c.ID, nil, nil, []string{"vip"})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Equal(t, []string{"vip"}, c.TargetTags)
}
