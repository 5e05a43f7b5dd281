package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/binfleet/binfleet/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedJanitor(t *testing.T, s *Store, email string) *model.Janitor {
	t.Helper()
	j := &model.Janitor{
		FirstName:    "Jo",
		LastName:     "Kerb",
		Email:        email,
		PasswordHash: "$2a$10$notarealhashbutlongenoughtostore",
		Phone:        "555-0100",
	}
	if err := s.CreateJanitor(context.Background(), j); err != nil {
		t.Fatalf("CreateJanitor: %v", err)
	}
	return j
}

func seedBin(t *testing.T, s *Store, code string) *model.Bin {
	t.Helper()
	bin := &model.Bin{
		Code:           code,
		Location:       "Main St & 4th",
		CapacityLitres: 240,
		FillLevel:      80,
		Status:         model.BinStatusFull,
	}
	if err := s.CreateBin(context.Background(), bin); err != nil {
		t.Fatalf("CreateBin: %v", err)
	}
	return bin
}

// Reopening an existing database must not trip over the schema.
func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.db")

	s1, err := New(DriverSQLite, path, PoolConfig{})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	seedBin(t, s1, "BIN-001")
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := New(DriverSQLite, path, PoolConfig{})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	bin, err := s2.GetBinByCode(context.Background(), "BIN-001")
	if err != nil {
		t.Fatalf("GetBinByCode after reopen: %v", err)
	}
	if bin.Location == "" {
		t.Error("bin row lost across reopen")
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := New("oracle", "", PoolConfig{}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAdminCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if has {
		t.Fatal("fresh store reports an admin")
	}

	admin := &model.Admin{
		FirstName:    "Ada",
		LastName:     "Root",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$notarealhashbutlongenoughtostore",
	}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}
	if admin.Status != string(model.StatusActive) {
		t.Errorf("default status = %q, want active", admin.Status)
	}

	got, err := s.GetAdminByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("got ID %d, want %d", got.ID, admin.ID)
	}

	if _, err := s.GetAdminByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}

	if err := s.UpdateAdminPassword(ctx, admin.ID, "$2a$10$replacementhashthatisalsolong"); err != nil {
		t.Fatalf("UpdateAdminPassword: %v", err)
	}
	got, _ = s.GetAdminByEmail(ctx, "ada@example.com")
	if got.PasswordHash != "$2a$10$replacementhashthatisalsolong" {
		t.Error("password hash not updated")
	}

	if err := s.SetAdminStatus(ctx, admin.ID, model.StatusInactive); err != nil {
		t.Fatalf("SetAdminStatus: %v", err)
	}
	if _, err := s.GetActiveAdmin(ctx, admin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("inactive admin: got %v, want ErrNotFound", err)
	}
	// Plain fetch still sees the row; handlers need it to log the real cause.
	if _, err := s.GetAdminByEmail(ctx, "ada@example.com"); err != nil {
		t.Errorf("GetAdminByEmail after deactivation: %v", err)
	}

	if err := s.SetAdminStatus(ctx, 9999, model.StatusActive); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAdminStatus unknown id: got %v, want ErrNotFound", err)
	}

	has, _ = s.HasAnyAdmin(ctx)
	if !has {
		t.Error("HasAnyAdmin false after create")
	}
}

func TestJanitorCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := seedJanitor(t, s, "jo@example.com")
	if j.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	got, err := s.GetJanitor(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJanitor: %v", err)
	}
	if got.Email != "jo@example.com" {
		t.Errorf("got email %q", got.Email)
	}

	got.Phone = "555-0199"
	got.FirstName = "Joanna"
	if err := s.UpdateJanitorProfile(ctx, got); err != nil {
		t.Fatalf("UpdateJanitorProfile: %v", err)
	}
	got2, _ := s.GetJanitor(ctx, j.ID)
	if got2.Phone != "555-0199" || got2.FirstName != "Joanna" {
		t.Errorf("profile not updated: %+v", got2)
	}

	list, err := s.ListJanitors(ctx)
	if err != nil {
		t.Fatalf("ListJanitors: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d janitors, want 1", len(list))
	}

	if err := s.SetJanitorStatus(ctx, j.ID, model.StatusInactive); err != nil {
		t.Fatalf("SetJanitorStatus: %v", err)
	}
	if _, err := s.GetActiveJanitor(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("inactive janitor: got %v, want ErrNotFound", err)
	}

	if err := s.DeleteJanitor(ctx, j.ID); err != nil {
		t.Fatalf("DeleteJanitor: %v", err)
	}
	if _, err := s.GetJanitor(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted janitor: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteJanitor(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestBinCRUDAndAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bin := seedBin(t, s, "BIN-001")
	j := seedJanitor(t, s, "jo@example.com")

	got, err := s.GetBinByCode(ctx, "BIN-001")
	if err != nil {
		t.Fatalf("GetBinByCode: %v", err)
	}
	if got.ID != bin.ID {
		t.Errorf("got ID %d, want %d", got.ID, bin.ID)
	}

	if err := s.AssignJanitor(ctx, bin.ID, j.ID); err != nil {
		t.Fatalf("AssignJanitor: %v", err)
	}
	got, _ = s.GetBin(ctx, bin.ID)
	if got.AssignedJanitorID == nil || *got.AssignedJanitorID != j.ID {
		t.Fatalf("assigned_janitor_id = %v, want %d", got.AssignedJanitorID, j.ID)
	}

	pending, err := s.ListAssignmentsForJanitor(ctx, j.ID, model.AssignmentPending)
	if err != nil {
		t.Fatalf("ListAssignmentsForJanitor: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending assignments, want 1", len(pending))
	}
	if pending[0].BinID != bin.ID {
		t.Errorf("assignment bin = %d, want %d", pending[0].BinID, bin.ID)
	}

	if err := s.AssignJanitor(ctx, 9999, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("assign unknown bin: got %v, want ErrNotFound", err)
	}

	// Filtered listing.
	full, err := s.ListBins(ctx, BinFilter{Status: model.BinStatusFull})
	if err != nil {
		t.Fatalf("ListBins: %v", err)
	}
	if len(full) != 1 {
		t.Errorf("got %d full bins, want 1", len(full))
	}
	empty, _ := s.ListBins(ctx, BinFilter{Status: model.BinStatusEmpty})
	if len(empty) != 0 {
		t.Errorf("got %d empty bins, want 0", len(empty))
	}

	if err := s.DeleteBin(ctx, bin.ID); err != nil {
		t.Fatalf("DeleteBin: %v", err)
	}
	if _, err := s.GetBin(ctx, bin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted bin: got %v, want ErrNotFound", err)
	}
}

func TestRecordCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bin := seedBin(t, s, "BIN-001")
	j := seedJanitor(t, s, "jo@example.com")
	if err := s.AssignJanitor(ctx, bin.ID, j.ID); err != nil {
		t.Fatalf("AssignJanitor: %v", err)
	}

	coll, err := s.RecordCollection(ctx, bin.ID, j.ID, "overflowing")
	if err != nil {
		t.Fatalf("RecordCollection: %v", err)
	}
	if coll.FillLevelBefore != 80 {
		t.Errorf("fill_level_before = %d, want 80", coll.FillLevelBefore)
	}

	// Bin reset happens in the same transaction.
	got, _ := s.GetBin(ctx, bin.ID)
	if got.Status != model.BinStatusEmpty || got.FillLevel != 0 {
		t.Errorf("bin after collection: status=%q fill=%d, want empty/0", got.Status, got.FillLevel)
	}

	// The pending assignment is completed, not left dangling.
	pending, _ := s.ListAssignmentsForJanitor(ctx, j.ID, model.AssignmentPending)
	if len(pending) != 0 {
		t.Errorf("got %d pending assignments, want 0", len(pending))
	}
	completed, _ := s.ListAssignmentsForJanitor(ctx, j.ID, model.AssignmentCompleted)
	if len(completed) != 1 {
		t.Fatalf("got %d completed assignments, want 1", len(completed))
	}
	if completed[0].CompletedAt == nil {
		t.Error("completed assignment has no completed_at")
	}

	list, err := s.ListCollections(ctx, CollectionFilter{BinID: bin.ID})
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d collections, want 1", len(list))
	}
}

func TestRecordCollectionUnknownBinRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	j := seedJanitor(t, s, "jo@example.com")

	if _, err := s.RecordCollection(ctx, 9999, j.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown bin: got %v, want ErrNotFound", err)
	}
	list, err := s.ListCollections(ctx, CollectionFilter{JanitorID: j.ID})
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d collections after failed record, want 0", len(list))
	}
}

// A janitor may empty a bin nobody asked them to; the collection still
// records even with no pending assignment to complete.
func TestRecordCollectionWithoutAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bin := seedBin(t, s, "BIN-002")
	j := seedJanitor(t, s, "jo@example.com")

	coll, err := s.RecordCollection(ctx, bin.ID, j.ID, "")
	if err != nil {
		t.Fatalf("RecordCollection: %v", err)
	}
	if coll.BinID != bin.ID || coll.JanitorID != j.ID {
		t.Errorf("collection = %+v", coll)
	}
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := seedJanitor(t, s, "jo@example.com")
	user := model.UserRef{Type: model.UserTypeJanitor, ID: j.ID}
	other := model.UserRef{Type: model.UserTypeJanitor, ID: j.ID + 1}

	n := &model.Notification{
		UserType: user.Type,
		UserID:   user.ID,
		Message:  "Bin BIN-001 assigned to you",
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	unread, err := s.CountUnreadNotifications(ctx, user)
	if err != nil {
		t.Fatalf("CountUnreadNotifications: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	// Marking is owner-scoped: another user cannot touch the row.
	if err := s.MarkNotificationRead(ctx, other, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign mark: got %v, want ErrNotFound", err)
	}
	if err := s.MarkNotificationRead(ctx, user, n.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	unread, _ = s.CountUnreadNotifications(ctx, user)
	if unread != 0 {
		t.Errorf("unread after mark = %d, want 0", unread)
	}

	list, err := s.ListNotificationsForUser(ctx, user, 10)
	if err != nil {
		t.Fatalf("ListNotificationsForUser: %v", err)
	}
	if len(list) != 1 || !list[0].IsRead {
		t.Errorf("list = %+v", list)
	}
}

func TestDashboardStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := seedJanitor(t, s, "jo@example.com")
	full := seedBin(t, s, "BIN-001")
	seedBin(t, s, "BIN-002")
	if err := s.AssignJanitor(ctx, full.ID, j.ID); err != nil {
		t.Fatalf("AssignJanitor: %v", err)
	}
	if _, err := s.RecordCollection(ctx, full.ID, j.ID, ""); err != nil {
		t.Fatalf("RecordCollection: %v", err)
	}

	stats, err := s.DashboardStats(ctx, model.UserRef{Type: model.UserTypeAdmin, ID: 1})
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalBins != 2 {
		t.Errorf("TotalBins = %d, want 2", stats.TotalBins)
	}
	if stats.FullBins != 1 {
		t.Errorf("FullBins = %d, want 1", stats.FullBins)
	}
	if stats.ActiveJanitors != 1 {
		t.Errorf("ActiveJanitors = %d, want 1", stats.ActiveJanitors)
	}
	if stats.CollectionsToday != 1 {
		t.Errorf("CollectionsToday = %d, want 1", stats.CollectionsToday)
	}
	if stats.PendingAssignments != 0 {
		t.Errorf("PendingAssignments = %d, want 0", stats.PendingAssignments)
	}
}
