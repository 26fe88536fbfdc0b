package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/auth"
	"github.com/hanabi-drive/hanabi/cookie"
	"github.com/hanabi-drive/hanabi/database/memory"
	"github.com/hanabi-drive/hanabi/wire"
)

const origin = "http://localhost:3000"

// MockStore is a mock implementation of hanabi.CredentialStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Insert(ctx context.Context, cred hanabi.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockStore) Find(ctx context.Context, name, password string) (hanabi.Credential, error) {
	args := m.Called(ctx, name, password)
	return args.Get(0).(hanabi.Credential), args.Error(1)
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func fixedIssuer(token string) auth.Issuer {
	return auth.IssuerFunc(func() (string, error) { return token, nil })
}

func newService(store hanabi.CredentialStore, opts ...auth.Option) *auth.Service {
	opts = append([]auth.Option{auth.WithIssuer(fixedIssuer("token-1"))}, opts...)
	return auth.NewService(store, auth.DefaultConfig(), opts...)
}

func newRequest(method wire.Method, query map[string]string, body string, headers ...wire.Header) *wire.Request {
	req := &wire.Request{
		Method:     method,
		Path:       "/auth/user",
		Query:      query,
		Proto:      wire.ProtoHTTP11,
		Headers:    headers,
		RemoteAddr: "127.0.0.1:50000",
	}
	if body != "" {
		req.Body = []byte(body)
	}
	return req
}

func TestService_Get(t *testing.T) {
	svc := newService(memory.NewStore(nil))

	tests := []struct {
		name    string
		headers []wire.Header
		want    string
	}{
		{name: "without session", want: "0"},
		{name: "with session", headers: []wire.Header{{Name: "Cookie", Value: "tkn=abc"}}, want: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := wire.NewResponse()
			req := newRequest(wire.MethodGet, map[string]string{"user": "7"}, "", tt.headers...)

			require.NoError(t, svc.Get(context.Background(), req, resp))

			assert.Equal(t, http.StatusOK, resp.Status.Code)
			assert.Equal(t, tt.want, resp.Body.String())
			assert.Equal(t, "1", resp.Headers.Get("Content-Length"))
			assert.Equal(t, "text/plain; charset=utf-8", resp.Headers.Get("Content-Type"))
			assert.Empty(t, resp.Headers.Values("Set-Cookie"), "identity never issues a session")
		})
	}
}

func TestService_Get_CORS(t *testing.T) {
	svc := newService(memory.NewStore(nil))

	resp := wire.NewResponse()
	req := newRequest(wire.MethodGet, map[string]string{"user": "1"}, "", wire.Header{Name: "Origin", Value: origin})
	require.NoError(t, svc.Get(context.Background(), req, resp))
	assert.Equal(t, origin, resp.Headers.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Headers.Get("Access-Control-Allow-Credentials"))

	req = newRequest(wire.MethodGet, map[string]string{"user": "1"}, "", wire.Header{Name: "Origin", Value: "http://evil.example"})
	assert.ErrorIs(t, svc.Get(context.Background(), req, wire.NewResponse()), hanabi.ErrPolicyDenied)
}

func TestService_Get_BadQuery(t *testing.T) {
	svc := newService(memory.NewStore(nil))

	for name, query := range map[string]map[string]string{
		"no query":    nil,
		"other key":   {"id": "1"},
		"not numeric": {"user": "alice"},
		"too large":   {"user": "256"},
		"negative":    {"user": "-1"},
		"empty":       {"user": ""},
	} {
		t.Run(name, func(t *testing.T) {
			err := svc.Get(context.Background(), newRequest(wire.MethodGet, query, ""), wire.NewResponse())
			assert.ErrorIs(t, err, hanabi.ErrMalformedInput)
		})
	}
}

func TestService_Options_IssuesCookieOnce(t *testing.T) {
	svc := newService(memory.NewStore(nil))
	preflight := []wire.Header{
		{Name: "Origin", Value: origin},
		{Name: "Access-Control-Request-Method", Value: "POST"},
		{Name: "Access-Control-Request-Headers", Value: "content-type"},
	}

	resp := wire.NewResponse()
	require.NoError(t, svc.Options(context.Background(), newRequest(wire.MethodOptions, nil, "", preflight...), resp))

	assert.Equal(t, http.StatusOK, resp.Status.Code)
	issued, err := cookie.ParseSetCookie(resp.Headers.Get("Set-Cookie"))
	require.NoError(t, err)
	assert.Equal(t, cookie.Cookie{Name: "tkn", Value: "token-1", Attributes: auth.DefaultConfig().Cookie}, issued)
	assert.Equal(t, "content-type", resp.Headers.Get("Access-Control-Allow-Headers"))

	withCookie := append(preflight, wire.Header{Name: "Cookie", Value: "tkn=token-1"})
	resp = wire.NewResponse()
	require.NoError(t, svc.Options(context.Background(), newRequest(wire.MethodOptions, nil, "", withCookie...), resp))
	assert.False(t, resp.Headers.Has("Set-Cookie"))
}

func TestService_Options_Errors(t *testing.T) {
	svc := newService(memory.NewStore(nil))

	req := newRequest(wire.MethodOptions, nil, "", wire.Header{Name: "Cookie", Value: "broken"})
	assert.ErrorIs(t, svc.Options(context.Background(), req, wire.NewResponse()), hanabi.ErrMalformedInput)

	req = newRequest(wire.MethodOptions, nil, "",
		wire.Header{Name: "Origin", Value: origin},
		wire.Header{Name: "Access-Control-Request-Method", Value: "DELETE"},
	)
	assert.ErrorIs(t, svc.Options(context.Background(), req, wire.NewResponse()), hanabi.ErrPolicyDenied)
}

func TestService_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewStore(nil))

	err := svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), wire.NewResponse())
	assert.ErrorIs(t, err, hanabi.ErrCredential)

	resp := wire.NewResponse()
	require.NoError(t, svc.Put(ctx, newRequest(wire.MethodPut, nil, "method_override=put&user_name=alice&user_pswd=wonder"), resp))
	assert.Equal(t, http.StatusCreated, resp.Status.Code)
	assert.Equal(t, "user created", resp.Body.String())

	resp = wire.NewResponse()
	require.NoError(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), resp))
	assert.Equal(t, http.StatusOK, resp.Status.Code)
	assert.True(t, resp.Headers.Has("Set-Cookie"))

	err = svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=land"), wire.NewResponse())
	assert.ErrorIs(t, err, hanabi.ErrCredential)
}

func TestService_Post_MethodOverride(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	svc := newService(store)

	resp := wire.NewResponse()
	require.NoError(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "method_override=put&user_name=bob&user_pswd=builder"), resp))
	assert.Equal(t, http.StatusCreated, resp.Status.Code)

	resp = wire.NewResponse()
	require.NoError(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "method_override=post&user_name=bob&user_pswd=builder"), resp))
	assert.Equal(t, http.StatusOK, resp.Status.Code)

	err := svc.Post(ctx, newRequest(wire.MethodPost, nil, "method_override=delete&user_name=bob&user_pswd=builder"), wire.NewResponse())
	assert.ErrorIs(t, err, hanabi.ErrMalformedInput)
}

func TestService_Post_KeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewStore([]hanabi.Credential{{Name: "alice", Password: "wonder"}}))

	resp := wire.NewResponse()
	req := newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder", wire.Header{Name: "Cookie", Value: "tkn=old"})
	require.NoError(t, svc.Post(ctx, req, resp))
	assert.False(t, resp.Headers.Has("Set-Cookie"))
}

func TestService_Post_MalformedBody(t *testing.T) {
	store := new(MockStore)
	svc := newService(store)

	for _, body := range []string{
		"",
		"user_pswd=wonder&user_name=alice",
		"user_name=alice",
		"name=alice&password=wonder",
	} {
		err := svc.Post(context.Background(), newRequest(wire.MethodPost, nil, body), wire.NewResponse())
		assert.ErrorIs(t, err, hanabi.ErrMalformedInput, "body %q", body)
	}
	store.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Post_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	store := new(MockStore)
	store.On("Find", mock.Anything, "alice", "wonder").Return(hanabi.Credential{}, boom)
	svc := newService(store)

	err := svc.Post(context.Background(), newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), wire.NewResponse())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, hanabi.ErrCredential)
}

func TestService_Post_RateLimited(t *testing.T) {
	ctx := context.Background()
	svc := newService(
		memory.NewStore([]hanabi.Credential{{Name: "alice", Password: "wonder"}}),
		auth.WithLimiter(auth.NewLimiter(0.001, 1)),
	)

	require.NoError(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), wire.NewResponse()))

	err := svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), wire.NewResponse())
	assert.ErrorIs(t, err, hanabi.ErrRateLimited)
}

func TestService_Post_RejectedRequestsKeepLoginBudget(t *testing.T) {
	ctx := context.Background()
	svc := newService(
		memory.NewStore([]hanabi.Credential{{Name: "alice", Password: "wonder"}}),
		auth.WithLimiter(auth.NewLimiter(0.001, 1)),
	)

	denied := newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder", wire.Header{Name: "Origin", Value: "http://evil.example"})
	assert.ErrorIs(t, svc.Post(ctx, denied, wire.NewResponse()), hanabi.ErrPolicyDenied)
	assert.ErrorIs(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice"), wire.NewResponse()), hanabi.ErrMalformedInput)

	require.NoError(t, svc.Post(ctx, newRequest(wire.MethodPost, nil, "user_name=alice&user_pswd=wonder"), wire.NewResponse()))
}

func TestService_Put_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		body   string
		target error
	}{
		{"missing override", "user_name=alice&user_pswd=wonder", hanabi.ErrMalformedInput},
		{"override not put", "method_override=post&user_name=alice&user_pswd=wonder", hanabi.ErrMalformedInput},
		{"reordered", "method_override=put&user_pswd=wonder&user_name=alice", hanabi.ErrMalformedInput},
		{"non printable name", "method_override=put&user_name=al%01ice&user_pswd=wonder", hanabi.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := newService(store)

			err := svc.Put(ctx, newRequest(wire.MethodPut, nil, tt.body), wire.NewResponse())
			assert.ErrorIs(t, err, tt.target)
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Put_StoreFailure(t *testing.T) {
	boom := errors.New("read-only database")
	store := new(MockStore)
	store.On("Insert", mock.Anything, hanabi.Credential{Name: "alice", Password: "wonder"}).Return(boom)
	svc := newService(store)

	err := svc.Put(context.Background(), newRequest(wire.MethodPut, nil, "method_override=put&user_name=alice&user_pswd=wonder"), wire.NewResponse())
	assert.ErrorIs(t, err, boom)
	store.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	svc := newService(new(MockStore))

	resp := wire.NewResponse()
	require.NoError(t, svc.Delete(context.Background(), newRequest(wire.MethodDelete, nil, ""), resp))
	assert.Equal(t, http.StatusOK, resp.Status.Code)
	assert.Zero(t, resp.Body.Len())
}

func TestService_IssuerFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	svc := auth.NewService(memory.NewStore(nil), auth.DefaultConfig(),
		auth.WithIssuer(auth.IssuerFunc(func() (string, error) { return "", boom })))

	err := svc.Options(context.Background(), newRequest(wire.MethodOptions, nil, ""), wire.NewResponse())
	assert.ErrorIs(t, err, boom)
}
