package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecret_AutoClear(t *testing.T) {
	s := &Secret{Value: []byte("pw"), AutoClear: true}
	backing := s.Value

	assert.Equal(t, "pw", s.String())
	assert.Nil(t, s.Value)
	assert.Equal(t, []byte{0, 0}, backing)
	assert.Nil(t, s.Bytes())
}

func TestSecret_BytesCopy(t *testing.T) {
	s := &Secret{Value: []byte("pw")}

	b := s.Bytes()
	b[0] = 'x'
	assert.Equal(t, "pw", s.String())
	assert.Equal(t, "pw", s.String())
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		value    string
		expected Reference
		wantErr  bool
	}{
		{
			value:    "secret://aws/sf/prod/password",
			expected: Reference{Provider: "aws", Ref: SecretRef{Path: "sf/prod/password"}},
		},
		{
			value:    "secret://memory/pw@v2",
			expected: Reference{Provider: "memory", Ref: SecretRef{Path: "pw", Version: "v2"}},
		},
		{
			value:    "secret://aws/team@corp/pw@AWSCURRENT",
			expected: Reference{Provider: "aws", Ref: SecretRef{Path: "team@corp/pw", Version: "AWSCURRENT"}},
		},
		{value: "plain", wantErr: true},
		{value: "secret://", wantErr: true},
		{value: "secret:///path", wantErr: true},
		{value: "secret://aws", wantErr: true},
		{value: "secret://aws/", wantErr: true},
		{value: "secret://aws/path@", wantErr: true},
		{value: "secret://aws/@v1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			ref, err := ParseRef(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
			assert.Equal(t, tt.value, ref.String())
		})
	}
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("secret://aws/x"))
	assert.False(t, IsRef("Secret://aws/x"))
	assert.False(t, IsRef("hunter2"))
}
