// internal/wall/service_test.go
//
// Pipeline tests with fake gateway, store, and notifier.
//
// Cover the properties that matter: server-side verification gates
// persistence, repeat confirmations return the same heart id, and a
// failed notification never fails the confirmation.
//
// Run: go test ./internal/wall -v

package wall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theheartwall/heartwall/internal/heart"
	"github.com/theheartwall/heartwall/internal/mail"
	"github.com/theheartwall/heartwall/internal/payment"
)

//
// fakes
//

type fakeGateway struct {
	intents map[string]*payment.Intent
	created []*payment.Intent
	fail    error
}

func (f *fakeGateway) CreateIntent(_ context.Context, meta map[string]string) (*payment.Intent, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	in := &payment.Intent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_payment_method",
		Metadata:     meta,
	}
	f.created = append(f.created, in)
	return in, nil
}

func (f *fakeGateway) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	in, ok := f.intents[id]
	if !ok {
		return nil, payment.ErrUpstream
	}
	return in, nil
}

// fakeStore keeps rows in a map keyed by payment ref, mirroring the
// unique-index behaviour of the real table.
type fakeStore struct {
	byRef     map[string]*heart.Record
	inserts   int
	byIDCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byRef: make(map[string]*heart.Record)}
}

func (f *fakeStore) Insert(_ context.Context, in heart.Input, ref string) (*heart.Record, bool, error) {
	f.inserts++
	if rec, ok := f.byRef[ref]; ok {
		return rec, false, nil
	}
	rec := &heart.Record{
		ID:         "h-" + ref,
		Name:       in.Name,
		Category:   in.Category,
		Date:       in.Date,
		PaymentRef: ref,
		CreatedAt:  time.Now().UTC(),
	}
	f.byRef[ref] = rec
	return rec, true, nil
}

func (f *fakeStore) ByID(_ context.Context, id string) (*heart.Record, error) {
	f.byIDCalls++
	for _, rec := range f.byRef {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, heart.ErrNotFound
}

func (f *fakeStore) ByPaymentRef(_ context.Context, ref string) (*heart.Record, error) {
	if rec, ok := f.byRef[ref]; ok {
		return rec, nil
	}
	return nil, heart.ErrNotFound
}

func (f *fakeStore) ListRecent(_ context.Context, limit, _ int) ([]heart.Record, error) {
	out := make([]heart.Record, 0, len(f.byRef))
	for _, rec := range f.byRef {
		out = append(out, *rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) CountAll(_ context.Context) (int64, error) {
	return int64(len(f.byRef)), nil
}

type fakeNotifier struct {
	sent []mail.Notification
	fail error
}

func (f *fakeNotifier) Send(_ context.Context, n mail.Notification) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, n)
	return nil
}

func succeededIntent(id string) *payment.Intent {
	return &payment.Intent{
		ID:     id,
		Status: payment.StatusSucceeded,
		Metadata: map[string]string{
			payment.MetaName:     "Emma & James",
			payment.MetaCategory: "romantic",
			payment.MetaDate:     "2025-01-01",
		},
	}
}

func newService(gw *fakeGateway, st *fakeStore, nt *fakeNotifier) *Service {
	var n mail.Notifier
	if nt != nil {
		n = nt
	}
	svc := New(gw, st, n)
	svc.now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

//
// tests
//

func TestCreateIntent_EndToEnd(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, newFakeStore(), nil)

	res, err := svc.CreateIntent(context.Background(),
		"Emma & James", "romantic", "", "2025-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", res.PaymentIntentID)
	assert.Equal(t, "pi_test_1_secret", res.ClientSecret)

	require.Len(t, gw.created, 1)
	meta := gw.created[0].Metadata
	assert.Equal(t, "Emma & James", meta[payment.MetaName])
	assert.Equal(t, "romantic", meta[payment.MetaCategory])
	assert.Equal(t, "2025-01-01", meta[payment.MetaDate])
}

func TestCreateIntent_ValidationBlocksUpstreamCall(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, newFakeStore(), nil)

	_, err := svc.CreateIntent(context.Background(),
		"Emma & James", "romantic", "", "2099-01-01", "")

	var vErr *heart.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)
	assert.Empty(t, gw.created, "no intent may be created for invalid input")
}

func TestConfirm_PersistsFromMetadata(t *testing.T) {
	gw := &fakeGateway{intents: map[string]*payment.Intent{
		"pi_1": succeededIntent("pi_1"),
	}}
	st := newFakeStore()
	svc := newService(gw, st, nil)

	rec, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "Emma & James", rec.Name)
	assert.Equal(t, heart.CategoryRomantic, rec.Category)
	assert.Equal(t, "2025-01-01", rec.Date)
	assert.Equal(t, "pi_1", rec.PaymentRef)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestConfirm_NotSucceededBlocksPersistence(t *testing.T) {
	in := succeededIntent("pi_1")
	in.Status = "requires_payment_method"
	gw := &fakeGateway{intents: map[string]*payment.Intent{"pi_1": in}}
	st := newFakeStore()
	svc := newService(gw, st, nil)

	_, err := svc.Confirm(context.Background(), "pi_1")
	require.ErrorIs(t, err, payment.ErrPaymentNotCompleted)
	assert.Zero(t, st.inserts, "nothing may be persisted for an unpaid intent")
}

func TestConfirm_CorruptedMetadata(t *testing.T) {
	in := succeededIntent("pi_1")
	in.Metadata = map[string]string{payment.MetaDate: "2025-01-01"}
	gw := &fakeGateway{intents: map[string]*payment.Intent{"pi_1": in}}
	svc := newService(gw, newFakeStore(), nil)

	_, err := svc.Confirm(context.Background(), "pi_1")
	require.ErrorIs(t, err, payment.ErrCorruptedMetadata)
}

func TestConfirm_Idempotent(t *testing.T) {
	gw := &fakeGateway{intents: map[string]*payment.Intent{
		"pi_1": succeededIntent("pi_1"),
	}}
	st := newFakeStore()
	nt := &fakeNotifier{}
	svc := newService(gw, st, nt)

	first, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)
	second, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "both calls report the same heart")
	assert.Len(t, st.byRef, 1, "exactly one stored record")
}

func TestConfirm_EmailFailureStillSucceeds(t *testing.T) {
	in := succeededIntent("pi_1")
	in.Metadata[payment.MetaRecipientEmail] = "jane@example.com"
	gw := &fakeGateway{intents: map[string]*payment.Intent{"pi_1": in}}
	st := newFakeStore()
	nt := &fakeNotifier{fail: errors.New("smtp on fire")}
	svc := newService(gw, st, nt)

	rec, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err, "send failure must not surface")
	assert.Len(t, st.byRef, 1, "record exists despite failed email")
	assert.NotEmpty(t, rec.ID)
}

func TestConfirm_NotifiesRecipient(t *testing.T) {
	in := succeededIntent("pi_1")
	in.Metadata[payment.MetaRecipientEmail] = "jane@example.com"
	in.Metadata[payment.MetaMessage] = "miss you"
	gw := &fakeGateway{intents: map[string]*payment.Intent{"pi_1": in}}
	nt := &fakeNotifier{}
	svc := newService(gw, newFakeStore(), nt)

	_, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)

	require.Len(t, nt.sent, 1)
	sent := nt.sent[0]
	assert.Equal(t, "jane@example.com", sent.RecipientEmail)
	assert.Equal(t, "Emma & James", sent.SenderName)
	assert.Equal(t, "miss you", sent.Message)
}

func TestHeartByID_ServedFromCacheAfterConfirm(t *testing.T) {
	gw := &fakeGateway{intents: map[string]*payment.Intent{
		"pi_1": succeededIntent("pi_1"),
	}}
	st := newFakeStore()
	svc := newService(gw, st, nil)

	rec, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)

	got, err := svc.HeartByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Zero(t, st.byIDCalls, "fresh hearts are served from the cache")

	_, err = svc.HeartByID(context.Background(), "missing")
	require.ErrorIs(t, err, heart.ErrNotFound)
	assert.Equal(t, 1, st.byIDCalls)
}

func TestConfirm_DuplicateDoesNotRenotify(t *testing.T) {
	in := succeededIntent("pi_1")
	in.Metadata[payment.MetaRecipientEmail] = "jane@example.com"
	gw := &fakeGateway{intents: map[string]*payment.Intent{"pi_1": in}}
	nt := &fakeNotifier{}
	svc := newService(gw, newFakeStore(), nt)

	_, err := svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), "pi_1")
	require.NoError(t, err)

	assert.Len(t, nt.sent, 1, "replayed confirmation must not resend the email")
}
