package services

import (
	"context"
	"testing"

	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAdminPaymentSlip(t *testing.T) {
	db := setupTestDB(t)
	images := NewMockImageService()
	svc := NewPaymentSlipService(db, images).WithClock(newStepClock().Now)
	ctx := context.Background()

	notes := "sample transfer"
	id, err := svc.UploadAdminPaymentSlip(ctx, pngImage("sample.png"), &notes)
	require.NoError(t, err)

	var slip models.PaymentSlip
	require.NoError(t, db.First(&slip, "id = ?", id).Error)
	assert.True(t, slip.UploadedByAdmin)
	assert.Zero(t, slip.Amount)
	assert.Nil(t, slip.OrderID)
	assert.Equal(t, "sample transfer", *slip.Notes)
	assert.True(t, images.ImageExists(slip.ImageURL))

	empty := ""
	id, err = svc.UploadAdminPaymentSlip(ctx, pngImage("plain.png"), &empty)
	require.NoError(t, err)
	require.NoError(t, db.First(&slip, "id = ?", id).Error)
	assert.Nil(t, slip.Notes)
}

func TestUploadAdminPaymentSlip_HostDown(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPaymentSlipService(db, failingImageService{})

	_, err := svc.UploadAdminPaymentSlip(context.Background(), pngImage("sample.png"), nil)

	assert.True(t, IsUpstream(err))
	var count int64
	db.Model(&models.PaymentSlip{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetAllPaymentSlips_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	clock := newStepClock()
	orders := NewOrderService(db, NewMockImageService(), nil).WithClock(clock.Now)
	slips := NewPaymentSlipService(db, NewMockImageService()).WithClock(clock.Now)
	ctx := context.Background()

	orderID, err := orders.CreateOrderWithSlip(ctx, "auth0|owner", hourlyDraft(4, false), pngImage("customer.png"))
	require.NoError(t, err)
	adminSlip, err := slips.UploadAdminPaymentSlip(ctx, pngImage("admin.png"), nil)
	require.NoError(t, err)

	all, err := slips.GetAllPaymentSlips(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, adminSlip, all[0].ID)
	require.NotNil(t, all[1].OrderID)
	assert.Equal(t, orderID, *all[1].OrderID)
	assert.Equal(t, 28, all[1].Amount)
}

func TestDeletePaymentSlip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPaymentSlipService(db, NewMockImageService())
	ctx := context.Background()

	id, err := svc.UploadAdminPaymentSlip(ctx, pngImage("sample.png"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePaymentSlip(ctx, id))
	assert.ErrorIs(t, svc.DeletePaymentSlip(ctx, id), ErrNotFound)

	all, err := svc.GetAllPaymentSlips(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
