package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/events"
	"global-app/internal/models"
	"global-app/internal/storage"
)

func (e *testEnv) opportunity(t *testing.T, deadline *time.Time) *models.Opportunity {
	t.Helper()
	opp, err := e.opportunities.CreateOpportunity(e.ctx, 1, OpportunityInput{
		Title:       "Backend engineer",
		Description: "Go services",
		Type:        models.OpportunityTypeJob,
		Company:     "Acme",
		Deadline:    deadline,
	})
	require.NoError(t, err)
	return opp
}

func TestCreateOpportunityValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.opportunities.CreateOpportunity(env.ctx, 1, OpportunityInput{Title: " ", Description: "x", Type: models.OpportunityTypeJob})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.opportunities.CreateOpportunity(env.ctx, 1, OpportunityInput{Title: "t", Description: "x", Type: "gig"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	opp := env.opportunity(t, nil)
	assert.Equal(t, models.OpportunityStatusOpen, opp.Status)
}

func TestApplyHappyPathAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	opp := env.opportunity(t, nil)
	u := env.user(t, "alice")

	app, err := env.opportunities.Apply(env.ctx, u.ID, opp.ID, "  hire me ", "/uploads/resume/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "hire me", app.CoverLetter)

	_, err = env.opportunities.Apply(env.ctx, u.ID, opp.ID, "again", "")
	assert.ErrorIs(t, err, ErrDuplicateApplication)

	view, err := env.opportunities.GetOpportunity(env.ctx, u.ID, opp.ID)
	require.NoError(t, err)
	assert.True(t, view.HasApplied)
	assert.Equal(t, app.ID, view.ApplicationID)
	assert.EqualValues(t, 1, view.ApplicationCount)

	assert.Equal(t, []events.Type{events.ApplicationSubmitted}, env.events.Types())
}

func TestApplyRejectsClosedAndExpired(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	closed := env.opportunity(t, nil)
	_, err := env.opportunities.UpdateOpportunityStatus(env.ctx, closed.ID, models.OpportunityStatusClosed)
	require.NoError(t, err)
	_, err = env.opportunities.Apply(env.ctx, u.ID, closed.ID, "", "")
	assert.ErrorIs(t, err, ErrOpportunityClosed)

	paused := env.opportunity(t, nil)
	_, err = env.opportunities.UpdateOpportunityStatus(env.ctx, paused.ID, models.OpportunityStatusPaused)
	require.NoError(t, err)
	_, err = env.opportunities.Apply(env.ctx, u.ID, paused.ID, "", "")
	assert.ErrorIs(t, err, ErrOpportunityClosed)

	yesterday := env.clock.Now().AddDate(0, 0, -1)
	expired := env.opportunity(t, &yesterday)
	_, err = env.opportunities.Apply(env.ctx, u.ID, expired.ID, "", "")
	assert.ErrorIs(t, err, ErrOpportunityExpired)

	today := env.clock.Now().Add(-10 * time.Hour)
	dueToday := env.opportunity(t, &today)
	_, err = env.opportunities.Apply(env.ctx, u.ID, dueToday.ID, "", "")
	assert.NoError(t, err, "a deadline of today is still open")

	_, err = env.opportunities.Apply(env.ctx, u.ID, 9999, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := env.store.Applications().CountByOpportunities(env.ctx, []uint{closed.ID, paused.ID, expired.ID})
	require.NoError(t, err)
	assert.Zero(t, n[closed.ID]+n[paused.ID]+n[expired.ID])
}

func TestIsExpiredComparesDatesOnly(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	assert.False(t, env.opportunities.IsExpired(&models.Opportunity{}))

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.False(t, env.opportunities.IsExpired(&models.Opportunity{Deadline: &startOfToday}))

	endOfYesterday := startOfToday.Add(-time.Nanosecond)
	assert.True(t, env.opportunities.IsExpired(&models.Opportunity{Deadline: &endOfYesterday}))

	tomorrow := startOfToday.AddDate(0, 0, 1)
	assert.False(t, env.opportunities.IsExpired(&models.Opportunity{Deadline: &tomorrow}))
}

func TestCancelApplication(t *testing.T) {
	env := newTestEnv(t)
	opp := env.opportunity(t, nil)
	u, other := env.user(t, "alice"), env.user(t, "bruno")

	app, err := env.opportunities.Apply(env.ctx, u.ID, opp.ID, "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, env.opportunities.CancelApplication(env.ctx, app.ID, other.ID), ErrForbidden)
	require.NoError(t, env.opportunities.CancelApplication(env.ctx, app.ID, u.ID))
	assert.ErrorIs(t, env.opportunities.CancelApplication(env.ctx, app.ID, u.ID), ErrNotFound)

	again, err := env.opportunities.Apply(env.ctx, u.ID, opp.ID, "second try", "")
	require.NoError(t, err, "cancelling frees the slot")

	_, err = env.opportunities.TransitionApplication(env.ctx, again.ID, models.ApplicationStatusReviewing, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, env.opportunities.CancelApplication(env.ctx, again.ID, u.ID), ErrNotCancelable)
}

func TestTransitionApplication(t *testing.T) {
	env := newTestEnv(t)
	opp := env.opportunity(t, nil)
	u := env.user(t, "alice")
	app, err := env.opportunities.Apply(env.ctx, u.ID, opp.ID, "", "")
	require.NoError(t, err)

	_, err = env.opportunities.TransitionApplication(env.ctx, app.ID, "hired", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := env.opportunities.TransitionApplication(env.ctx, app.ID, models.ApplicationStatusAccepted, strPtr("strong profile"))
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, updated.Status)
	assert.Equal(t, "strong profile", updated.AdminNotes)

	// No transition table: staff can move an accepted application back to pending.
	updated, err = env.opportunities.TransitionApplication(env.ctx, app.ID, models.ApplicationStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, updated.Status)
	assert.Equal(t, "strong profile", updated.AdminNotes, "nil notes keep the old ones")

	_, err = env.opportunities.TransitionApplication(env.ctx, 9999, models.ApplicationStatusAccepted, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	recorded := env.events.Events()
	last := recorded[len(recorded)-1]
	assert.Equal(t, events.ApplicationStatusChanged, last.Type)
	assert.Equal(t, string(models.ApplicationStatusPending), last.Status)
	assert.Equal(t, u.ID, last.ActorID)
}

func TestListApplicationsViews(t *testing.T) {
	env := newTestEnv(t)
	opp := env.opportunity(t, nil)
	a, b := env.user(t, "alice"), env.user(t, "bruno")
	_, err := env.opportunities.Apply(env.ctx, a.ID, opp.ID, "", "")
	require.NoError(t, err)
	_, err = env.opportunities.Apply(env.ctx, b.ID, opp.ID, "", "")
	require.NoError(t, err)

	all, err := env.opportunities.ListApplications(env.ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, v := range all {
		assert.Equal(t, "Backend engineer", v.OpportunityTitle)
		assert.NotEmpty(t, v.Applicant.Username)
	}

	mine, err := env.opportunities.ListMyApplications(env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].Applicant.Username)

	_, err = env.opportunities.ListApplications(env.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOpportunitiesFilters(t *testing.T) {
	env := newTestEnv(t)
	job := env.opportunity(t, nil)
	_, err := env.opportunities.CreateOpportunity(env.ctx, 1, OpportunityInput{Title: "Mock interview", Description: "practice", Type: models.OpportunityTypeInterview})
	require.NoError(t, err)

	jobs, err := env.opportunities.ListOpportunities(env.ctx, 0, storage.OpportunityFilter{Type: models.OpportunityTypeJob})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)

	all, err := env.opportunities.ListOpportunities(env.ctx, 0, storage.OpportunityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.opportunities.ListOpportunities(env.ctx, 0, storage.OpportunityFilter{Type: "gig"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.opportunities.ListOpportunities(env.ctx, 0, storage.OpportunityFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.opportunities.UpdateOpportunityStatus(env.ctx, job.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = env.opportunities.UpdateOpportunityStatus(env.ctx, 9999, models.OpportunityStatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)
}
