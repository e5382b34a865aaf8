package flex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHashVectors(t *testing.T) {
	tests := []struct {
		name   string
		groups []ContentGroup
		want   string
	}{
		{
			name:   "title v1",
			groups: []ContentGroup{Group(C("title", Text("v1")))},
			want:   "7d075819d2825a71ea924db1c859a59016551b6a579e2ecad7fcea9b4240107c",
		},
		{
			name:   "identifier 7",
			groups: []ContentGroup{Group(C("", Identifier("7")))},
			want:   "bd13ddb75b96b30c163dccfc5a994ca2058d17cc9c3c67fd8d0aae2365d55a88",
		},
		{
			name:   "int64 7",
			groups: []ContentGroup{Group(C("", Int64(7)))},
			want:   "173db19401bb0b3ea210d88f8014f31c9563c469fac896a1ded802b87ff79a26",
		},
		{
			name:   "empty",
			groups: nil,
			want:   "5ae0b28b593f38e96c32d34a6923ec7098de29c9fd2b4dd387fca7c496494cf9",
		},
		{
			name:   "six variants",
			groups: sixVariantGroups(),
			want:   "9696c023def6d26bc8250d1f79a6252d9518bd2876861a37bca02edc5a85db3b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeHash(tt.groups)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	groups := []ContentGroup{Group(C("title", Text("v1")))}
	first := MustComputeHash(groups)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, MustComputeHash([]ContentGroup{Group(C("title", Text("v1")))}))
	}
}

func TestComputeHashIsolation(t *testing.T) {
	base := MustComputeHash([]ContentGroup{Group(C("title", Text("v1")))})

	variants := map[string][]ContentGroup{
		"label":       {Group(C("Title", Text("v1")))},
		"value":       {Group(C("title", Text("v2")))},
		"type":        {Group(C("title", Identifier("v1")))},
		"extra group": {Group(C("title", Text("v1"))), {}},
		"split group": {{}, Group(C("title", Text("v1")))},
	}
	for name, groups := range variants {
		assert.NotEqual(t, base, MustComputeHash(groups), name)
	}
}

func TestHasherAlgorithms(t *testing.T) {
	groups := []ContentGroup{Group(C("title", Text("v1")))}

	sha, err := NewHasher(SHA256)
	require.NoError(t, err)
	b3, err := NewHasher(BLAKE3)
	require.NoError(t, err)

	assert.Equal(t, SHA256, Hasher{}.Algorithm())
	assert.Equal(t, BLAKE3, b3.Algorithm())

	d1, err := sha.ComputeHash(groups)
	require.NoError(t, err)
	d2, err := b3.ComputeHash(groups)
	require.NoError(t, err)

	assert.Equal(t, MustComputeHash(groups), d1)
	assert.NotEqual(t, d1, d2)
	assert.False(t, d2.IsZero())

	again, err := b3.ComputeHash(groups)
	require.NoError(t, err)
	assert.Equal(t, d2, again)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}

func TestComputeHashMalformed(t *testing.T) {
	_, err := ComputeHash([]ContentGroup{Group(C("x", Identifier("")))})
	assert.Error(t, err)
	assert.Panics(t, func() {
		MustComputeHash([]ContentGroup{Group(C("x", nil))})
	})
}
