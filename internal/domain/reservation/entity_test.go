package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	r, err := New("r1", "t1", "g1", "u1", now)
	assert.NoError(t, err)
	assert.Equal(t, now, r.ReservedAt)
	assert.Equal(t, now.Add(DefaultTTL), r.ExpiresAt)
	assert.Equal(t, 30*time.Minute, r.ExpiresAt.Sub(r.ReservedAt))
}

func TestNewWithTTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	r, err := NewWithTTL("r1", "t1", "g1", "u1", now, 45*time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(45*time.Minute), r.ExpiresAt)

	// Неположительный срок заменяется на значение по умолчанию.
	r, err = NewWithTTL("r1", "t1", "g1", "u1", now, 0)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(DefaultTTL), r.ExpiresAt)
}

func TestNew_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 10, 17, 0, 0, 0, loc)

	r, err := New("r1", "t1", "g1", "u1", local)
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, r.ReservedAt.Location())
	assert.True(t, r.ReservedAt.Equal(local))
}

func TestNew_Invalid(t *testing.T) {
	now := time.Now()

	_, err := New("", "t1", "g1", "u1", now)
	assert.Error(t, err)

	_, err = New("r1", "", "g1", "u1", now)
	assert.Error(t, err)

	_, err = New("r1", "t1", "", "u1", now)
	assert.Error(t, err)

	_, err = New("r1", "t1", "g1", "", now)
	assert.Error(t, err)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r, _ := New("r1", "t1", "g1", "u1", now)

	assert.True(t, r.IsActive(now))
	assert.True(t, r.IsActive(now.Add(29*time.Minute)))

	// Граница истечения включительна: ровно в ExpiresAt резервация мертва.
	assert.False(t, r.IsActive(now.Add(DefaultTTL)))
	assert.True(t, r.IsExpired(now.Add(DefaultTTL)))
	assert.True(t, r.IsExpired(now.Add(31*time.Minute)))
}

func TestMinutesLeft(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r, _ := New("r1", "t1", "g1", "u1", now)

	assert.Equal(t, 30, r.MinutesLeft(now))
	assert.Equal(t, 10, r.MinutesLeft(now.Add(20*time.Minute)))
	assert.Equal(t, 0, r.MinutesLeft(now.Add(29*time.Minute+30*time.Second)))
	assert.Equal(t, 0, r.MinutesLeft(now.Add(time.Hour)))
}

func TestOwnedBy(t *testing.T) {
	r, _ := New("r1", "t1", "g1", "u1", time.Now())

	assert.True(t, r.OwnedBy("u1"))
	assert.False(t, r.OwnedBy("u2"))
}
