package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/pkg/events"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByBookingID(ctx context.Context, bookingID string) (*domain.StoredBooking, error) {
	args := m.Called(ctx, bookingID)
	if sb := args.Get(0); sb != nil {
		return sb.(*domain.StoredBooking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, rec domain.BookingRecord, source string) (int64, bool, error) {
	args := m.Called(ctx, rec, source)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// fakeFallback is a stateful in-memory stand-in for the Redis-backed local
// store.
type fakeFallback struct {
	current     *domain.BookingRecord
	appended    []domain.BookingRecord
	markedID    string
	markedRef   string
	failWrites  bool
	saveCalls   int
	appendCalls int
}

func (f *fakeFallback) SaveCurrent(ctx context.Context, rec domain.BookingRecord) error {
	f.saveCalls++
	if f.failWrites {
		return errors.New("fallback unavailable")
	}
	f.current = &rec
	return nil
}

func (f *fakeFallback) Append(ctx context.Context, rec domain.BookingRecord) error {
	f.appendCalls++
	if f.failWrites {
		return errors.New("fallback unavailable")
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeFallback) LastSaved(ctx context.Context) (string, string, error) {
	return f.markedID, f.markedRef, nil
}

func (f *fakeFallback) MarkSaved(ctx context.Context, bookingID, refID string) error {
	if f.failWrites {
		return errors.New("fallback unavailable")
	}
	f.markedID = bookingID
	f.markedRef = refID
	return nil
}

func testRecord() domain.BookingRecord {
	return domain.BookingRecord{
		BookingID: "CT1A2B3C4D",
		Vehicle:   domain.VehicleSnapshot{ID: 1, Name: "maruti suzuki"},
		Customer: domain.CustomerDetails{
			Name:     "Asha Verma",
			Email:    "asha@example.com",
			Phone:    "+919876543210",
			IDNumber: "DL-0420211234567",
		},
		Trip: domain.TripDetails{
			Type:              domain.TripRound,
			PickupDate:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			ReturnDate:        time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
			PickupLocation:    "Jaipur",
			DropLocation:      "Jaipur",
			EstimatedDistance: 600,
		},
		PaymentMethod: "cash",
		PricingModel:  domain.ModelPerDay,
		TotalAmount:   domain.Rupees(8040),
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSubmitSavesAndPublishes(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	bus := new(mockPublisher)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").Return(int64(42), true, nil)
	bus.On("Publish", mock.Anything, events.BookingSaved, mock.Anything).Return(nil)

	s := NewSubmitter(store, fb, bus, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	assert.Equal(t, "42", res.RefID)
	assert.False(t, res.Duplicate)

	require.NotNil(t, fb.current)
	assert.Equal(t, rec.BookingID, fb.current.BookingID)
	assert.Len(t, fb.appended, 1)
	assert.Equal(t, rec.BookingID, fb.markedID)
	assert.Equal(t, "42", fb.markedRef)

	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestSubmitTwiceWritesOnce(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	bus := new(mockPublisher)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil).Once()
	store.On("Insert", mock.Anything, rec, "website").Return(int64(42), true, nil).Once()
	bus.On("Publish", mock.Anything, events.BookingSaved, mock.Anything).Return(nil).Once()

	s := NewSubmitter(store, fb, bus, "")
	first := s.Submit(context.Background(), rec)
	second := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, first.Status)
	assert.Equal(t, StatusSaved, second.Status)
	assert.Equal(t, first.RefID, second.RefID)
	assert.True(t, second.Duplicate)

	store.AssertNumberOfCalls(t, "Insert", 1)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSubmitSkipsWhenMarkedSavedLocally(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{markedID: rec.BookingID, markedRef: "42"}

	// no store expectations: a matching local marker short-circuits before
	// any durable-store call
	s := NewSubmitter(store, fb, nil, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	assert.Equal(t, "42", res.RefID)
	assert.True(t, res.Duplicate)
	store.AssertNotCalled(t, "FindByBookingID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitDetectsExistingStoreRow(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{}

	existing := &domain.StoredBooking{RefID: 7, BookingRecord: rec}
	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(existing, nil)

	s := NewSubmitter(store, fb, nil, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	assert.Equal(t, "7", res.RefID)
	assert.True(t, res.Duplicate)
	assert.Equal(t, rec.BookingID, fb.markedID, "marker must still be written for reload short-circuit")
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitConditionalInsertLostRace(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	bus := new(mockPublisher)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").Return(int64(99), false, nil)

	s := NewSubmitter(store, fb, bus, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	assert.Equal(t, "99", res.RefID)
	assert.True(t, res.Duplicate)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitStoreFailureKeepsFallbackAndAllowsRetry(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").
		Return(int64(0), false, errors.New("connection refused")).Once()
	store.On("Insert", mock.Anything, rec, "website").
		Return(int64(42), true, nil).Once()

	s := NewSubmitter(store, fb, nil, "")

	first := s.Submit(context.Background(), rec)
	assert.Equal(t, StatusFailed, first.Status)
	assert.Contains(t, first.Reason, "connection refused")
	require.NotNil(t, fb.current, "user data must survive the durable failure")
	assert.Empty(t, fb.markedID, "marker must not be set before a durable success")

	retry := s.Submit(context.Background(), rec)
	assert.Equal(t, StatusSaved, retry.Status)
	assert.Equal(t, "42", retry.RefID)

	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestSubmitExistenceCheckFailureIsDegraded(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).
		Return(nil, errors.New("timeout"))

	s := NewSubmitter(store, fb, nil, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "existence check")
	assert.Len(t, fb.appended, 1)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitFailurePublishesSyncFailedEvent(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	bus := new(mockPublisher)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").
		Return(int64(0), false, errors.New("connection refused"))
	bus.On("Publish", mock.Anything, events.BookingSyncFailed, mock.Anything).Return(nil)

	s := NewSubmitter(store, fb, bus, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusFailed, res.Status)
	bus.AssertExpectations(t)
	bus.AssertNotCalled(t, "Publish", mock.Anything, events.BookingSaved, mock.Anything)
}

func TestSubmitFallbackErrorsDoNotBlockDurableSave(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{failWrites: true}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").Return(int64(42), true, nil)

	s := NewSubmitter(store, fb, nil, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	assert.Equal(t, "42", res.RefID)
}

func TestSubmitPublishFailureDoesNotFailBooking(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	bus := new(mockPublisher)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "website").Return(int64(42), true, nil)
	bus.On("Publish", mock.Anything, events.BookingSaved, mock.Anything).
		Return(errors.New("nats down"))

	s := NewSubmitter(store, fb, bus, "")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
}

func TestSubmitEmptyBookingID(t *testing.T) {
	s := NewSubmitter(new(mockStore), &fakeFallback{}, nil, "")
	res := s.Submit(context.Background(), domain.BookingRecord{})

	assert.Equal(t, StatusFailed, res.Status)
	assert.NotEmpty(t, res.Reason)
}

func TestSubmitCustomSource(t *testing.T) {
	rec := testRecord()
	store := new(mockStore)
	fb := &fakeFallback{}

	store.On("FindByBookingID", mock.Anything, rec.BookingID).Return(nil, nil)
	store.On("Insert", mock.Anything, rec, "kiosk").Return(int64(42), true, nil)

	s := NewSubmitter(store, fb, nil, "kiosk")
	res := s.Submit(context.Background(), rec)

	assert.Equal(t, StatusSaved, res.Status)
	store.AssertExpectations(t)
}
