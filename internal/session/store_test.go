package session

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noodlemap/pkg/models"
)

// signToken builds a real HS256 token; decoding never checks the signature,
// so any key works.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

type fakeLoginClient struct {
	token string
	err   error
	calls int
}

func (f *fakeLoginClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{Token: f.token, ExpiresIn: 86400}, nil
}

func TestDecodeTokenFullClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":          "chef",
		"userId":       float64(42),
		"roles":        []interface{}{"ROLE_USER", "ROLE_SHOP_OWNER"},
		"ownedShopIds": []interface{}{float64(7), float64(9)},
	})

	id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.ID)
	assert.Equal(t, "chef", id.Username)
	assert.True(t, id.Roles.Has(models.RoleShopOwner))
	assert.True(t, id.Roles.Has(models.RoleUser))
	assert.False(t, id.IsAdmin())
	assert.Equal(t, []int64{7, 9}, id.OwnedShopIDs)
	assert.True(t, id.OwnsShop(7))
	assert.False(t, id.OwnsShop(8))
}

func TestDecodeTokenSingleRoleString(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "admin",
		"userId": float64(1),
		"roles":  "ROLE_ADMIN",
	})

	id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
	assert.Equal(t, []models.Role{models.RoleAdmin}, id.Roles.List())
}

func TestDecodeTokenLegacyOwnedShopID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":         "chef",
		"userId":      float64(3),
		"roles":       []interface{}{"ROLE_SHOP_OWNER"},
		"ownedShopId": float64(11),
	})

	id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, id.OwnedShopIDs)
	assert.True(t, id.OwnsShop(11))
}

func TestDecodeTokenDropsUnknownRoles(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "eater",
		"userId": float64(5),
		"roles":  []interface{}{"ROLE_USER", "ROLE_WIZARD"},
	})

	id, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleUser}, id.Roles.List())
}

func TestDecodeTokenFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing subject", jwt.MapClaims{"userId": float64(1), "roles": "ROLE_USER"}},
		{"missing user id", jwt.MapClaims{"sub": "eater", "roles": "ROLE_USER"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeToken(signToken(t, tc.claims))
			assert.ErrorIs(t, err, ErrMalformedCredential)
		})
	}

	_, err := DecodeToken("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedCredential)
}

func TestRestoreValidCredential(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "eater",
		"userId": float64(5),
		"roles":  []interface{}{"ROLE_USER"},
	})
	creds := &MemoryCredentials{}
	require.NoError(t, creds.Save(token))

	s := NewStore(creds, nil)
	require.Equal(t, StateUnknown, s.State())

	s.Restore()

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, token, s.Token())
	require.NotNil(t, s.Identity())
	assert.Equal(t, "eater", s.Identity().Username)
}

func TestRestoreMalformedCredentialIsCleared(t *testing.T) {
	creds := &MemoryCredentials{}
	require.NoError(t, creds.Save("garbage"))

	s := NewStore(creds, nil)
	s.Restore()

	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())

	stored, err := creds.Load()
	require.NoError(t, err)
	assert.Empty(t, stored, "malformed credential must be removed from storage")
}

func TestRestoreWithoutCredential(t *testing.T) {
	s := NewStore(&MemoryCredentials{}, nil)
	s.Restore()
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.Identity())
}

func TestLoginSuccessPersistsCredential(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "eater",
		"userId": float64(5),
		"roles":  []interface{}{"ROLE_USER"},
	})
	creds := &MemoryCredentials{}
	client := &fakeLoginClient{token: token}

	s := NewStore(creds, nil)
	s.BindClient(client)

	var states []State
	s.Subscribe(func(st State) { states = append(states, st) })

	result := s.Login(context.Background(), "eater", "eater-pass")
	require.True(t, result.Success)
	require.NotNil(t, result.Identity)
	assert.Equal(t, int64(5), result.Identity.ID)
	assert.Equal(t, StateAuthenticated, s.State())

	stored, err := creds.Load()
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	assert.Equal(t, []State{StateAuthenticating, StateAuthenticated}, states)
}

func TestLoginFailureLandsAnonymous(t *testing.T) {
	creds := &MemoryCredentials{}
	client := &fakeLoginClient{err: assert.AnError}

	s := NewStore(creds, client)
	result := s.Login(context.Background(), "eater", "wrong")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Identity())
}

func TestAdoptTokenRejectsUndecodable(t *testing.T) {
	creds := &MemoryCredentials{}
	s := NewStore(creds, nil)

	result := s.AdoptToken("garbage")
	assert.False(t, result.Success)
	assert.Equal(t, StateAnonymous, s.State())

	stored, err := creds.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLogoutClearsEverything(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "eater",
		"userId": float64(5),
		"roles":  []interface{}{"ROLE_USER"},
	})
	creds := &MemoryCredentials{}
	s := NewStore(creds, nil)
	require.True(t, s.AdoptToken(token).Success)

	s.Logout()

	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())
	stored, _ := creds.Load()
	assert.Empty(t, stored)
}

func TestHandleUnauthorizedClearsCredential(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "eater",
		"userId": float64(5),
		"roles":  []interface{}{"ROLE_USER"},
	})
	creds := &MemoryCredentials{}
	s := NewStore(creds, nil)
	require.True(t, s.AdoptToken(token).Success)

	var states []State
	s.Subscribe(func(st State) { states = append(states, st) })

	s.HandleUnauthorized()

	assert.Equal(t, StateAnonymous, s.State())
	stored, _ := creds.Load()
	assert.Empty(t, stored)
	assert.Equal(t, []State{StateAnonymous}, states)

	// a second 401 while already logged out stays quiet
	states = nil
	s.HandleUnauthorized()
	assert.Empty(t, states)
}

func TestFileCredentialsRoundTrip(t *testing.T) {
	path := t.TempDir() + "/credentials.yaml"
	f := NewFileCredentials(path)

	// absent file means no session, not an error
	token, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, f.Save("abc.def.ghi"))
	token, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, f.Clear())
	token, err = f.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	// clearing twice is fine
	require.NoError(t, f.Clear())
}
