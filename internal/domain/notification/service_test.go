package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/optional"
	"github.com/ehr/admin/pkg/pagination"
)

var fixedNow = time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

func newTestService() (*Service, *memNotificationRepo, *recordingPusher) {
	repo := newMemNotificationRepo()
	push := &recordingPusher{}
	svc := NewService(repo, db.NopTxRunner{}, push)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, push
}

func adminCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UserID: uuid.New(), Roles: []string{auth.RoleAdmin}})
}

func userCtx(id uuid.UUID) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UserID: id, Roles: []string{auth.RoleClinician}})
}

func mustNotify(t *testing.T, svc *Service, userID uuid.UUID, category string) *Notification {
	t.Helper()
	n, err := svc.Create(adminCtx(), CreateNotificationRequest{UserID: userID, Category: category, Title: "Heads up", Body: "Something happened"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return n
}

func TestCreate_PushesToRecipient(t *testing.T) {
	svc, _, push := newTestService()
	user := uuid.New()
	n := mustNotify(t, svc, user, "")

	if n.Category != "system" || n.Read() {
		t.Errorf("unexpected notification %+v", n)
	}
	sent := push.events()
	if len(sent) != 1 {
		t.Fatalf("expected one push, got %d", len(sent))
	}
	if sent[0].userID != user || sent[0].event.Type != EventCreated {
		t.Errorf("unexpected push %+v", sent[0])
	}
	var body NotificationResponse
	if err := json.Unmarshal(sent[0].event.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != n.ID || body.ReadAt != nil {
		t.Errorf("unexpected payload %+v", body)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, push := newTestService()
	tests := []struct {
		name string
		req  CreateNotificationRequest
	}{
		{"missing user", CreateNotificationRequest{Title: "t", Body: "b"}},
		{"missing title", CreateNotificationRequest{UserID: uuid.New(), Title: "  ", Body: "b"}},
		{"missing body", CreateNotificationRequest{UserID: uuid.New(), Title: "t"}},
		{"unknown category", CreateNotificationRequest{UserID: uuid.New(), Category: "gossip", Title: "t", Body: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(adminCtx(), tt.req); apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(push.events()) != 0 {
		t.Error("rejected notifications must not be pushed")
	}
}

func TestCreate_NoPushOnRollback(t *testing.T) {
	svc, _, push := newTestService()
	failing := errors.New("boom")
	err := svc.tx.InTx(adminCtx(), func(ctx context.Context) error {
		if _, err := svc.Create(ctx, CreateNotificationRequest{UserID: uuid.New(), Title: "t", Body: "b"}); err != nil {
			return err
		}
		return failing
	})
	if !errors.Is(err, failing) {
		t.Fatalf("expected outer error, got %v", err)
	}
	if len(push.events()) != 0 {
		t.Error("push must wait for commit")
	}
}

func TestMarkRead_OwnerOnly(t *testing.T) {
	svc, _, push := newTestService()
	owner := uuid.New()
	n := mustNotify(t, svc, owner, "security")

	if _, err := svc.MarkRead(userCtx(uuid.New()), n.ID); !apperr.IsNotFound(err) {
		t.Errorf("stranger: expected not found, got %v", err)
	}
	if _, err := svc.MarkRead(adminCtx(), n.ID); !apperr.IsNotFound(err) {
		t.Errorf("admin marking another user's notification: expected not found, got %v", err)
	}

	read, err := svc.MarkRead(userCtx(owner), n.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil || !read.ReadAt.Equal(fixedNow) {
		t.Errorf("unexpected read_at %v", read.ReadAt)
	}

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := svc.MarkRead(userCtx(owner), n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.ReadAt.Equal(fixedNow) {
		t.Errorf("second read must keep the first timestamp, got %v", again.ReadAt)
	}
	if got := len(push.events()); got != 2 {
		t.Errorf("expected create and read pushes, got %d", got)
	}
}

func TestGet_HidesOtherInboxes(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()
	n := mustNotify(t, svc, owner, "billing")

	if _, err := svc.Get(userCtx(owner), n.ID); err != nil {
		t.Errorf("owner: %v", err)
	}
	if _, err := svc.Get(adminCtx(), n.ID); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := svc.Get(userCtx(uuid.New()), n.ID); !apperr.IsNotFound(err) {
		t.Errorf("stranger: expected not found, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	n := mustNotify(t, svc, uuid.New(), "system")

	updated, err := svc.Update(adminCtx(), n.ID, UpdateNotificationRequest{Title: optional.Of("Maintenance tonight")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Maintenance tonight" || updated.Body != n.Body {
		t.Errorf("unexpected notification %+v", updated)
	}
	if _, err := svc.Update(adminCtx(), n.ID, UpdateNotificationRequest{Body: optional.NullOf[string]()}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error clearing body, got %v", err)
	}
}

func TestDelete_IsHard(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := uuid.New()
	n := mustNotify(t, svc, owner, "appointment")

	if err := svc.Delete(userCtx(uuid.New()), n.ID); !apperr.IsNotFound(err) {
		t.Errorf("stranger delete: expected not found, got %v", err)
	}
	if err := svc.Delete(userCtx(owner), n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if repo.t.Len() != 0 {
		t.Errorf("expected row removed, %d left", repo.t.Len())
	}
	if err := svc.Delete(userCtx(owner), n.ID); !apperr.IsNotFound(err) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestList_ScopedToCaller(t *testing.T) {
	svc, _, _ := newTestService()
	alice, bob := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		mustNotify(t, svc, alice, "system")
	}
	first := mustNotify(t, svc, bob, "billing")
	mustNotify(t, svc, bob, "system")
	if _, err := svc.MarkRead(userCtx(bob), first.ID); err != nil {
		t.Fatal(err)
	}
	page := pagination.Params{Page: 1, Limit: 20}

	_, total, err := svc.List(userCtx(alice), NotificationFilter{}, page)
	if err != nil || total != 3 {
		t.Errorf("alice: expected 3, got %d (%v)", total, err)
	}
	if _, _, err := svc.List(userCtx(alice), NotificationFilter{UserID: &bob}, page); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("alice listing bob: expected unauthorized, got %v", err)
	}

	unread := true
	rows, total, err := svc.List(userCtx(bob), NotificationFilter{Unread: &unread}, page)
	if err != nil || total != 1 || rows[0].Category != "system" {
		t.Errorf("bob unread: expected the system notification, got %d (%v)", total, err)
	}

	_, total, err = svc.List(adminCtx(), NotificationFilter{}, page)
	if err != nil || total != 5 {
		t.Errorf("admin: expected 5, got %d (%v)", total, err)
	}
	_, total, err = svc.List(adminCtx(), NotificationFilter{UserID: &bob}, page)
	if err != nil || total != 2 {
		t.Errorf("admin filtering bob: expected 2, got %d (%v)", total, err)
	}
}
