package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeKey(t *testing.T) {
	id := int64(42)

	n := Notification{Kind: KindExpired, PelakuUsahaID: &id}
	key, ok := n.DedupeKey()
	assert.True(t, ok)
	assert.Equal(t, "pelaku:tera_expired:42", key)

	n = Notification{Kind: KindNewRequest, PermohonanID: &id}
	key, ok = n.DedupeKey()
	assert.True(t, ok)
	assert.Equal(t, "permohonan:permohonan_baru:42", key)

	n = Notification{Kind: KindNewRequest}
	_, ok = n.DedupeKey()
	assert.False(t, ok)
}

func TestKindIsValid(t *testing.T) {
	assert.True(t, KindExpiryWarning.IsValid())
	assert.False(t, Kind("tera_baru").IsValid())
}
