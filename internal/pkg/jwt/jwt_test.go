package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danisworo/jalur/internal/pkg/models"
)

func testConfig() models.JWTConfig {
	return models.JWTConfig{
		Secret:     "test-secret",
		Expiration: 60,
		Issuer:     "jalur",
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken("rider-1", "rider", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, cfg.Secret)
	require.NoError(t, err)
	assert.Equal(t, "rider-1", (*claims)["user_id"])
	assert.Equal(t, "rider", (*claims)["role"])
	assert.Equal(t, "jalur", (*claims)["iss"])
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("rider-1", "rider", testConfig())
	require.NoError(t, err)

	_, err = ValidateToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "test-secret")
	assert.Error(t, err)
}
