package service

import (
	"testing"
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testActor = Actor{AdminID: 1, Email: "ops@example.com"}

func setupTagServiceTest(t *testing.T) (*TagService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	svc := NewTagService(
		repository.NewTagRepository(testDB),
		repository.NewBusinessRepository(testDB),
	)
	return svc, testDB
}

func TestTagService_CreateTag(t *testing.T) {
	svc, _ := setupTagServiceTest(t)

	tag, err := svc.CreateTag(model.TagTypeQR, "", testActor)
	require.NoError(t, err)
	assert.Regexp(t, `^QR-[0-9A-F]{8}$`, tag.TagID)
	assert.Equal(t, model.TagStatusInactive, tag.Status)
	assert.Nil(t, tag.BusinessID)

	nfc, err := svc.CreateTag(model.TagTypeNFC, "", testActor)
	require.NoError(t, err)
	assert.Regexp(t, `^NFC-[0-9A-F]{8}$`, nfc.TagID)

	_, err = svc.CreateTag("rfid", "", testActor)
	assert.ErrorIs(t, err, ErrInvalidTagType)

	// A caller-supplied id is honored once and rejected on collision.
	custom, err := svc.CreateTag(model.TagTypeQR, "QR-CAFE0001", testActor)
	require.NoError(t, err)
	assert.Equal(t, "QR-CAFE0001", custom.TagID)
	_, err = svc.CreateTag(model.TagTypeQR, "QR-CAFE0001", testActor)
	assert.ErrorIs(t, err, ErrTagIDExists)

	history, err := svc.GetHistory(tag.TagID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "created", history[0].Action)
	assert.Equal(t, testActor.Email, history[0].AdminEmail)
}

func TestTagService_BulkCreateTags(t *testing.T) {
	svc, _ := setupTagServiceTest(t)

	tags, err := svc.BulkCreateTags(model.TagTypeQR, 25, testActor)
	require.NoError(t, err)
	assert.Len(t, tags, 25)

	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag.TagID])
		seen[tag.TagID] = true
	}

	_, err = svc.BulkCreateTags(model.TagTypeQR, 0, testActor)
	assert.Error(t, err)
}

func TestTagService_AssignTag(t *testing.T) {
	svc, testDB := setupTagServiceTest(t)
	business := createTestBusiness(t, testDB, "assignee")

	tag, err := svc.CreateTag(model.TagTypeQR, "", testActor)
	require.NoError(t, err)

	assigned, err := svc.AssignTag(tag.TagID, business.ID, "front counter", 365, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusPending, assigned.Status)
	require.NotNil(t, assigned.BusinessID)
	assert.Equal(t, business.ID, *assigned.BusinessID)
	assert.NotNil(t, assigned.AssignedAt)
	require.NotNil(t, assigned.ExpiresAt)
	assert.WithinDuration(t, assigned.AssignedAt.AddDate(0, 0, 365), *assigned.ExpiresAt, time.Second)

	// The second assignment of the same tag loses: the status guard in the
	// update matches nothing once the tag left inactive.
	other := createTestBusiness(t, testDB, "other")
	_, err = svc.AssignTag(tag.TagID, other.ID, "window", 0, testActor)
	assert.ErrorIs(t, err, ErrTagNotInactive)

	// The winner's assignment is untouched.
	reloaded, err := svc.GetTag(tag.TagID)
	require.NoError(t, err)
	assert.Equal(t, business.ID, *reloaded.BusinessID)

	_, err = svc.AssignTag("QR-DOESNOTX", business.ID, "", 0, testActor)
	assert.ErrorIs(t, err, ErrTagNotFound)

	_, err = svc.AssignTag(tag.TagID, 9999, "", 0, testActor)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestTagService_UnassignTag(t *testing.T) {
	svc, testDB := setupTagServiceTest(t)
	business := createTestBusiness(t, testDB, "unassigner")

	tag, err := svc.CreateTag(model.TagTypeQR, "", testActor)
	require.NoError(t, err)

	// An unassigned tag cannot be unassigned.
	_, err = svc.UnassignTag(tag.TagID, testActor)
	assert.ErrorIs(t, err, ErrTagNotAssigned)

	_, err = svc.AssignTag(tag.TagID, business.ID, "counter", 30, testActor)
	require.NoError(t, err)

	unassigned, err := svc.UnassignTag(tag.TagID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusInactive, unassigned.Status)
	assert.Nil(t, unassigned.BusinessID)
	assert.Nil(t, unassigned.Location)
	assert.Nil(t, unassigned.AssignedAt)
	assert.Nil(t, unassigned.ExpiresAt)

	// The history keeps the business the tag came back from.
	history, err := svc.GetHistory(tag.TagID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "unassigned", history[2].Action)
	require.NotNil(t, history[2].BusinessID)
	assert.Equal(t, business.ID, *history[2].BusinessID)
}

func TestTagService_ActivateTag(t *testing.T) {
	svc, testDB := setupTagServiceTest(t)
	business := createTestBusiness(t, testDB, "activator")

	tag, err := svc.CreateTag(model.TagTypeNFC, "", testActor)
	require.NoError(t, err)

	// Activation requires pending.
	_, err = svc.ActivateTag(tag.TagID, testActor)
	assert.ErrorIs(t, err, ErrTagNotPending)

	_, err = svc.AssignTag(tag.TagID, business.ID, "door", 0, testActor)
	require.NoError(t, err)

	active, err := svc.ActivateTag(tag.TagID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusActive, active.Status)
	assert.NotNil(t, active.ActivatedAt)

	// Re-activation of an active tag is rejected the same way.
	_, err = svc.ActivateTag(tag.TagID, testActor)
	assert.ErrorIs(t, err, ErrTagNotPending)
}

func TestTagService_ScrapAndReset(t *testing.T) {
	svc, testDB := setupTagServiceTest(t)
	business := createTestBusiness(t, testDB, "lifecycle")

	// Full lifecycle round-trip: create, assign, activate, scrap, reset.
	tag, err := svc.CreateTag(model.TagTypeQR, "", testActor)
	require.NoError(t, err)

	_, err = svc.AssignTag(tag.TagID, business.ID, "till", 0, testActor)
	require.NoError(t, err)
	_, err = svc.ActivateTag(tag.TagID, testActor)
	require.NoError(t, err)

	scrapped, err := svc.ScrapTag(tag.TagID, "water damage", testActor)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusScrapped, scrapped.Status)
	require.NotNil(t, scrapped.ScrapReason)
	assert.Equal(t, "water damage", *scrapped.ScrapReason)

	// Scrapping releases the business assignment.
	assert.Nil(t, scrapped.BusinessID)
	assert.Nil(t, scrapped.AssignedAt)

	// Scrapping twice fails; the tag is already out of circulation.
	_, err = svc.ScrapTag(tag.TagID, "again", testActor)
	assert.ErrorIs(t, err, ErrTagConflict)

	// Reset works from any state and wipes the assignment entirely.
	reset, err := svc.ResetTag(tag.TagID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.TagStatusInactive, reset.Status)
	assert.Nil(t, reset.BusinessID)
	assert.Nil(t, reset.Location)
	assert.Nil(t, reset.AssignedAt)
	assert.Nil(t, reset.ActivatedAt)
	assert.Nil(t, reset.ScrapReason)
	assert.Nil(t, reset.ScrappedAt)

	// A reset tag is assignable again.
	_, err = svc.AssignTag(tag.TagID, business.ID, "shelf", 0, testActor)
	require.NoError(t, err)

	history, err := svc.GetHistory(tag.TagID)
	require.NoError(t, err)
	// created, assigned, activated, scrapped, reset, assigned
	assert.Len(t, history, 6)
}

func TestTagService_ListAndStats(t *testing.T) {
	svc, testDB := setupTagServiceTest(t)
	business := createTestBusiness(t, testDB, "lister")

	for i := 0; i < 3; i++ {
		_, err := svc.CreateTag(model.TagTypeQR, "", testActor)
		require.NoError(t, err)
	}
	nfc, err := svc.CreateTag(model.TagTypeNFC, "", testActor)
	require.NoError(t, err)
	_, err = svc.AssignTag(nfc.TagID, business.ID, "", 0, testActor)
	require.NoError(t, err)

	all, total, err := svc.ListTags("", "", nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)

	pending, total, err := svc.ListTags(string(model.TagStatusPending), "", nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, nfc.TagID, pending[0].TagID)

	qrOnly, total, err := svc.ListTags("", string(model.TagTypeQR), nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, qrOnly, 3)

	stats, err := svc.InventoryStats()
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats["inactive"])
	assert.EqualValues(t, 1, stats["pending"])
}

func TestTagService_ExportInventory(t *testing.T) {
	svc, _ := setupTagServiceTest(t)

	tag, err := svc.CreateTag(model.TagTypeQR, "", testActor)
	require.NoError(t, err)

	f, err := svc.ExportInventory("", "")
	require.NoError(t, err)

	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tag ID", rows[0][0])
	assert.Equal(t, tag.TagID, rows[1][0])
	assert.Equal(t, "inactive", rows[1][2])
}
