package complaint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/email"
	"taskdesk/internal/service/notification"
	"taskdesk/internal/testutil"
)

func newTestService(t *testing.T) (Service, *repository.Repositories) {
	t.Helper()
	repos := testutil.NewRepositories(t)
	notifier := notification.NewService(repos.Notification, email.NewService(&config.Config{Locale: "en"}), time.UTC)
	return NewService(repos, notifier, attachment.NewService(repos, nil), cache.New(nil), "en"), repos
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")

	created, err := svc.Create(ctx, testutil.Principal(alice), domain.CreateComplaintInput{
		Subject: "Printer jammed",
		Message: "Third floor printer",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintOther, created.ComplaintType)
	assert.Equal(t, domain.ComplaintPending, created.Status)
	assert.Equal(t, alice.ID, created.UserID)

	_, err = svc.Create(ctx, testutil.Principal(alice), domain.CreateComplaintInput{
		ComplaintType: "Gardening",
		Subject:       "x",
		Message:       "y",
	}, nil)
	var ve pkgvalidator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "complaint_type", ve[0].Field)
}

func TestAccessAndScope(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	bob := testutil.CreateUser(t, repos, "bob")
	admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())

	mine := testutil.CreateComplaint(t, repos, alice, "Air conditioning")
	testutil.CreateComplaint(t, repos, bob, "Parking")

	_, err := svc.GetByID(ctx, testutil.Principal(bob), mine.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.GetByID(ctx, testutil.Principal(alice), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Air conditioning", got.Subject)

	page, err := svc.List(ctx, testutil.Principal(alice), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)

	page, err = svc.List(ctx, testutil.Principal(admin), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)

	status := domain.ComplaintInProgress
	_, err = svc.Update(ctx, testutil.Principal(alice), mine.ID, domain.UpdateComplaintInput{Status: &status}, nil, domain.ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, testutil.Principal(alice), mine.ID, domain.ClientInfo{}), domain.ErrForbidden)
}

func TestStatusChange(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())
	complaint := testutil.CreateComplaint(t, repos, alice, "Payslip missing")

	resolved, err := svc.Resolve(ctx, testutil.Principal(admin), complaint.ID, domain.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintResolved, resolved.Status)

	// any status is reachable from any other
	pending := domain.ComplaintPending
	reopened, err := svc.Update(ctx, testutil.Principal(admin), complaint.ID, domain.UpdateComplaintInput{Status: &pending}, nil, domain.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintPending, reopened.Status)

	notifs, err := repos.Notification.ListByRelated(ctx, alice.ID, domain.CategoryComplaint, complaint.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 2)

	logs, err := repos.AuditLog.ListByEntity(ctx, "complaint", complaint.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, domain.AuditComplaintStatus, l.Action)
	}

	subject := "Payslip for May missing"
	_, err = svc.Update(ctx, testutil.Principal(admin), complaint.ID, domain.UpdateComplaintInput{Subject: &subject}, nil, domain.ClientInfo{})
	require.NoError(t, err)
	notifs, err = repos.Notification.ListByRelated(ctx, alice.ID, domain.CategoryComplaint, complaint.ID)
	require.NoError(t, err)
	assert.Len(t, notifs, 2)
}

func TestDeleteIsAudited(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())
	complaint := testutil.CreateComplaint(t, repos, alice, "Noise")

	require.NoError(t, svc.Delete(ctx, testutil.Principal(admin), complaint.ID, domain.ClientInfo{}))

	_, err := repos.Complaint.GetByID(ctx, complaint.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	logs, err := repos.AuditLog.ListByEntity(ctx, "complaint", complaint.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditDelete, logs[0].Action)
}
