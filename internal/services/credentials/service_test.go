package credentials

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aichat/internal/db"
	"github.com/j-veylop/aichat/internal/models"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

func newTestService(t *testing.T, opts ...Option) (*Service, *db.DB) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return New(database, opts...), database
}

// digits returns a reader that makes GeneratePin yield the given PINs in order.
func digits(pins ...string) *bytes.Reader {
	var buf []byte
	for _, pin := range pins {
		for _, c := range pin {
			buf = append(buf, byte(c-'0'))
		}
	}
	return bytes.NewReader(buf)
}

func TestRegister_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, database := newTestService(t)

	first, err := svc.Register(ctx, "sk-or-secret")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "sk-or-secret")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	n, err := database.CountCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_PinFormat(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, secret := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		pin, err := svc.Register(ctx, secret)
		require.NoError(t, err)
		assert.Regexp(t, pinPattern, pin)
	}
}

func TestRegister_KeepsLeadingZeros(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithRandom(digits("0042")))

	pin, err := svc.Register(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, "0042", pin)
}

func TestRegister_StoresOnlyTheDigest(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	svc, database := newTestService(t, WithClock(func() time.Time { return created }))

	_, err := svc.Register(ctx, "sk-plain")
	require.NoError(t, err)

	cred, err := database.GetCredentialByHash(ctx, HashSecret("sk-plain"))
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.NotContains(t, cred.APIKeyHash, "sk-plain")
	assert.True(t, cred.CreatedAt.Equal(created))
}

func TestRegister_RedrawsTakenPin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithRandom(digits("1234", "1234", "5678")))

	pinA, err := svc.Register(ctx, "secret-a")
	require.NoError(t, err)
	pinB, err := svc.Register(ctx, "secret-b")
	require.NoError(t, err)

	assert.Equal(t, "1234", pinA)
	assert.Equal(t, "5678", pinB)
}

func TestRegister_PinSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	pins := make([]string, 0, maxPinAttempts+1)
	for range maxPinAttempts + 1 {
		pins = append(pins, "1111")
	}
	svc, _ := newTestService(t, WithRandom(digits(pins...)))

	_, err := svc.Register(ctx, "secret-a")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "secret-b")
	assert.ErrorIs(t, err, ErrPinSpaceExhausted)
}

func TestRegister_EmptySecret(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestRegister_ConcurrentSameSecret(t *testing.T) {
	ctx := context.Background()
	svc, database := newTestService(t)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pin, err := svc.Register(ctx, "shared-secret")
			assert.NoError(t, err)
			results[i] = pin
		}(i)
	}
	wg.Wait()

	for _, pin := range results[1:] {
		assert.Equal(t, results[0], pin)
	}
	n, err := database.CountCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVerifyPin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithRandom(digits("0007")))

	ok, err := svc.VerifyPin(ctx, "9999")
	require.NoError(t, err)
	assert.False(t, ok, "nothing issued yet")

	pin, err := svc.Register(ctx, "secret")
	require.NoError(t, err)

	tests := []struct {
		pin  string
		want bool
	}{
		{pin: pin, want: true},
		{pin: "7", want: false},
		{pin: "0008", want: false},
		{pin: "00007", want: false},
		{pin: "", want: false},
	}
	for _, tt := range tests {
		ok, err := svc.VerifyPin(ctx, tt.pin)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "VerifyPin(%q)", tt.pin)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	pin, err := svc.Register(ctx, "secret")
	require.NoError(t, err)

	cred, err := svc.Authenticate(ctx, pin)
	require.NoError(t, err)
	assert.Equal(t, HashSecret("secret"), cred.APIKeyHash)

	_, err = svc.Authenticate(ctx, "abcd")
	assert.ErrorIs(t, err, ErrInvalidPinFormat)

	other := "0000"
	if pin == other {
		other = "0001"
	}
	_, err = svc.Authenticate(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidPin)
}

func TestIsRegistered(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	ok, err := svc.IsRegistered(ctx, "secret")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Register(ctx, "secret")
	require.NoError(t, err)

	ok, err = svc.IsRegistered(ctx, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsRegistered(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevokeByPin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	pin, err := svc.Register(ctx, "secret")
	require.NoError(t, err)

	removed, err := svc.RevokeByPin(ctx, pin)
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err := svc.VerifyPin(ctx, pin)
	require.NoError(t, err)
	assert.False(t, ok, "revoked pin must not verify")

	removed, err = svc.RevokeByPin(ctx, pin)
	require.NoError(t, err)
	assert.False(t, removed)
}

type failingStore struct{ Store }

var errStore = errors.New("disk full")

func (failingStore) IssueCredential(context.Context, string, string, time.Time) (*models.Credential, bool, error) {
	return nil, false, errStore
}

func (failingStore) PinExists(context.Context, string) (bool, error) {
	return false, errStore
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := New(failingStore{})

	_, err := svc.Register(ctx, "secret")
	assert.ErrorIs(t, err, errStore)

	_, err = svc.VerifyPin(ctx, "1234")
	assert.ErrorIs(t, err, errStore)
}
