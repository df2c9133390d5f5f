package service

import (
	"testing"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTagPairServiceTest(t *testing.T) (*TagPairService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	svc := NewTagPairService(
		repository.NewTagPairRepository(testDB),
		repository.NewBusinessRepository(testDB),
	)
	return svc, testDB
}

func TestTagPairService_CreatePair(t *testing.T) {
	svc, _ := setupTagPairServiceTest(t)

	pair, err := svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "first batch", testActor)
	require.NoError(t, err)
	assert.Regexp(t, `^PAIR-[0-9A-F]{8}$`, pair.PairID)
	assert.Equal(t, model.TagPairStatusUnassigned, pair.Status)

	// Reusing either component is rejected.
	_, err = svc.CreatePair("QR-AAAA1111", "NFC-CCCC3333", "", testActor)
	assert.ErrorIs(t, err, ErrPairComponentInUse)
	_, err = svc.CreatePair("QR-DDDD4444", "NFC-BBBB2222", "", testActor)
	assert.ErrorIs(t, err, ErrPairComponentInUse)

	activities, err := svc.GetActivityLog(pair.PairID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "created", activities[0].Action)
}

func TestTagPairService_BulkCreatePairs(t *testing.T) {
	svc, _ := setupTagPairServiceTest(t)

	pairs, err := svc.BulkCreatePairs(10, testActor)
	require.NoError(t, err)
	assert.Len(t, pairs, 10)

	_, err = svc.BulkCreatePairs(0, testActor)
	assert.Error(t, err)
}

func TestTagPairService_AssignPair(t *testing.T) {
	svc, testDB := setupTagPairServiceTest(t)
	business := createTestBusiness(t, testDB, "pair-owner")
	business.Address = "12 Main St"
	require.NoError(t, testDB.Save(business).Error)

	pair, err := svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "", testActor)
	require.NoError(t, err)

	assigned, err := svc.AssignPair(pair.PairID, business.ID, testActor, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, model.TagPairStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.BusinessName)
	assert.Equal(t, business.Name, *assigned.BusinessName)
	require.NotNil(t, assigned.AssignedBy)
	assert.Equal(t, testActor.Email, *assigned.AssignedBy)

	// Assigned pairs are not assignable again; that is what reassign is for.
	other := createTestBusiness(t, testDB, "pair-rival")
	_, err = svc.AssignPair(pair.PairID, other.ID, testActor, "")
	assert.ErrorIs(t, err, ErrPairNotAssignable)

	_, err = svc.AssignPair("PAIR-MISSING1", business.ID, testActor, "")
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestTagPairService_ReassignPair(t *testing.T) {
	svc, testDB := setupTagPairServiceTest(t)
	first := createTestBusiness(t, testDB, "first-owner")
	second := createTestBusiness(t, testDB, "second-owner")

	pair, err := svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "", testActor)
	require.NoError(t, err)
	_, err = svc.AssignPair(pair.PairID, first.ID, testActor, "")
	require.NoError(t, err)
	_, err = svc.ActivatePair(pair.PairID, testActor, "")
	require.NoError(t, err)

	// Reassign moves an even active pair to a new business without touching
	// its status.
	reassigned, err := svc.ReassignPair(pair.PairID, second.ID, testActor, "")
	require.NoError(t, err)
	assert.Equal(t, model.TagPairStatusActive, reassigned.Status)
	require.NotNil(t, reassigned.BusinessID)
	assert.Equal(t, second.ID, *reassigned.BusinessID)
	assert.Equal(t, second.Name, *reassigned.BusinessName)
}

func TestTagPairService_ActivateDeactivate(t *testing.T) {
	svc, testDB := setupTagPairServiceTest(t)
	business := createTestBusiness(t, testDB, "toggler")

	pair, err := svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "", testActor)
	require.NoError(t, err)
	_, err = svc.AssignPair(pair.PairID, business.ID, testActor, "")
	require.NoError(t, err)

	active, err := svc.ActivatePair(pair.PairID, testActor, "")
	require.NoError(t, err)
	assert.Equal(t, model.TagPairStatusActive, active.Status)
	assert.NotNil(t, active.ActivatedAt)

	// Double activation is rejected.
	_, err = svc.ActivatePair(pair.PairID, testActor, "")
	assert.ErrorIs(t, err, ErrPairAlreadyActive)

	inactive, err := svc.DeactivatePair(pair.PairID, testActor, "")
	require.NoError(t, err)
	assert.Equal(t, model.TagPairStatusInactive, inactive.Status)
	assert.NotNil(t, inactive.DeactivatedAt)

	// Double deactivation is rejected.
	_, err = svc.DeactivatePair(pair.PairID, testActor, "")
	assert.ErrorIs(t, err, ErrPairNotActive)

	// Inactive pairs can come back.
	reactivated, err := svc.ActivatePair(pair.PairID, testActor, "")
	require.NoError(t, err)
	assert.Equal(t, model.TagPairStatusActive, reactivated.Status)
}

func TestTagPairService_DeletePair(t *testing.T) {
	svc, testDB := setupTagPairServiceTest(t)
	business := createTestBusiness(t, testDB, "deleter")

	pair, err := svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "", testActor)
	require.NoError(t, err)
	_, err = svc.AssignPair(pair.PairID, business.ID, testActor, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeletePair(pair.PairID, testActor, "10.0.0.2"))

	// Deletion is terminal: every further operation refuses.
	_, err = svc.GetPair(pair.PairID)
	assert.ErrorIs(t, err, ErrPairDeleted)
	_, err = svc.ActivatePair(pair.PairID, testActor, "")
	assert.ErrorIs(t, err, ErrPairDeleted)
	_, err = svc.AssignPair(pair.PairID, business.ID, testActor, "")
	assert.ErrorIs(t, err, ErrPairDeleted)
	err = svc.DeletePair(pair.PairID, testActor, "")
	assert.ErrorIs(t, err, ErrPairDeleted)

	// Deleted pairs drop out of listings but the delete activity keeps the
	// full prior document.
	pairs, total, err := svc.ListPairs("", nil, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, pairs)

	activities, err := svc.GetActivityLog(pair.PairID, 0)
	require.NoError(t, err)
	var deleteEntry *model.TagPairActivity
	for i := range activities {
		if activities[i].Action == "deleted" {
			deleteEntry = &activities[i]
		}
	}
	require.NotNil(t, deleteEntry)
	assert.Contains(t, deleteEntry.PreviousState, pair.PairID)
	assert.Equal(t, "10.0.0.2", deleteEntry.IPAddress)

	// The freed components can be bound into a new pair.
	_, err = svc.CreatePair("QR-AAAA1111", "NFC-BBBB2222", "", testActor)
	require.NoError(t, err)
}

func TestTagPairService_StatsAndList(t *testing.T) {
	svc, testDB := setupTagPairServiceTest(t)
	business := createTestBusiness(t, testDB, "stats-owner")

	pairs, err := svc.BulkCreatePairs(4, testActor)
	require.NoError(t, err)
	_, err = svc.AssignPair(pairs[0].PairID, business.ID, testActor, "")
	require.NoError(t, err)
	_, err = svc.AssignPair(pairs[1].PairID, business.ID, testActor, "")
	require.NoError(t, err)
	_, err = svc.ActivatePair(pairs[1].PairID, testActor, "")
	require.NoError(t, err)

	stats, err := svc.PairStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats["unassigned"])
	assert.EqualValues(t, 1, stats["assigned"])
	assert.EqualValues(t, 1, stats["active"])

	byBusiness, total, err := svc.ListPairs("", &business.ID, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byBusiness, 2)
}
