package hashfunction_test

import (
	"testing"

	"github.com/pg-sharding/shardgate/pkg/models/hashfunction"
	"github.com/stretchr/testify/assert"
)

func TestEncodeUInt64(t *testing.T) {
	tests := []struct {
		name     string
		inp      uint64
		expected []byte
	}{
		{"Zero value", 0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{"Power of two: 2^7", 128, []byte{128, 1, 0, 0, 0, 0, 0, 0}},
		{"Arbitrary number: 12345", 12345, []byte{185, 96, 0, 0, 0, 0, 0, 0}},
		{"Maximum 56-bit - 1 value", 1<<56 - 1, []byte{255, 255, 255, 255, 255, 255, 255, 127}},
		{"Large number: 2^63", 1 << 63, []byte{128, 128, 128, 128, 128, 128, 128, 128, 128, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hashfunction.EncodeUInt64(tt.inp)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIdentity(t *testing.T) {
	assert := assert.New(t)

	for _, v := range []any{int64(42), 42, uint32(42), "42", float64(42)} {
		h, err := hashfunction.ApplyHashFunction(v, hashfunction.HashFunctionIdent)
		assert.NoError(err)
		assert.Equal(uint64(42), h, "%T", v)
	}

	_, err := hashfunction.ApplyHashFunction("abc", hashfunction.HashFunctionIdent)
	assert.Error(err)

	for _, v := range []any{int64(-5), -1, "-5"} {
		_, err := hashfunction.ApplyHashFunction(v, hashfunction.HashFunctionIdent)
		assert.Error(err, "%v", v)
	}

	/* hashed functions take any integer */
	_, err = hashfunction.ApplyHashFunction(int64(-5), hashfunction.HashFunctionMurmur)
	assert.NoError(err)
}

func TestHashIsStable(t *testing.T) {
	assert := assert.New(t)

	for _, hf := range []hashfunction.HashFunctionType{hashfunction.HashFunctionMurmur, hashfunction.HashFunctionCity} {
		a, err := hashfunction.ApplyHashFunction("user-17", hf)
		assert.NoError(err)
		b, err := hashfunction.ApplyHashFunction([]byte("user-17"), hf)
		assert.NoError(err)
		assert.Equal(a, b)

		/* integers and their decimal string form hash the same */
		c, err := hashfunction.ApplyHashFunction(int64(17), hf)
		assert.NoError(err)
		d, err := hashfunction.ApplyHashFunction("17", hf)
		assert.NoError(err)
		assert.Equal(c, d)
	}

	_, err := hashfunction.ApplyHashFunction(struct{}{}, hashfunction.HashFunctionMurmur)
	assert.Error(err)
}

func TestHashFunctionByName(t *testing.T) {
	assert := assert.New(t)

	for name, exp := range map[string]hashfunction.HashFunctionType{
		"ident":    hashfunction.HashFunctionIdent,
		"identity": hashfunction.HashFunctionIdent,
		"murmur":   hashfunction.HashFunctionMurmur,
		"":         hashfunction.HashFunctionMurmur,
		"city":     hashfunction.HashFunctionCity,
	} {
		hf, err := hashfunction.HashFunctionByName(name)
		assert.NoError(err)
		assert.Equal(exp, hf)
		if name != "" && name != "ident" {
			assert.Equal(name, hashfunction.ToString(hf))
		}
	}

	_, err := hashfunction.HashFunctionByName("sha1")
	assert.Error(err)
}
