package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/gabgate/internal/client"
	"github.com/vovakirdan/gabgate/internal/client/api"
	"github.com/vovakirdan/gabgate/internal/client/localstore"
	"github.com/vovakirdan/gabgate/internal/proto"
)

type cliEnv struct {
	dir         string
	sessionPath string
}

func newCLIEnv(t *testing.T, apiURL string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{dir: dir, sessionPath: filepath.Join(dir, "session.yaml")}
	t.Setenv("GABGATE_CLIENT_API_URL", apiURL)
	t.Setenv("GABGATE_CLIENT_SESSION_PATH", env.sessionPath)
	t.Setenv("GABGATE_CLIENT_LOG_PATH", filepath.Join(dir, "error.log"))
	t.Setenv("GABGATE_CLIENT_STORAGE_DIR", filepath.Join(dir, "files"))
	return env
}

func (e cliEnv) login(t *testing.T, user localstore.User) {
	t.Helper()
	st, err := localstore.Load(e.sessionPath)
	require.NoError(t, err)
	st.SetUser(user)
	require.NoError(t, st.Save())
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", filepath.Join(e.dir, "client.yaml")}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCommandsRequireLogin(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1")

	for _, args := range [][]string{{"user"}, {"friends"}, {"create"}, {"join", "abc"}} {
		t.Run(args[0], func(t *testing.T) {
			out, err := env.run(t, args...)
			require.ErrorIs(t, err, errReported)
			assert.Equal(t, msgPleaseLogin+"\n", out)
		})
	}
}

func TestUserHidesToken(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1")
	env.login(t, localstore.User{ID: 3, Email: "ada@example.com", Username: "ada", Token: "secret-token", Friends: []string{"bob"}})

	out, err := env.run(t, "user")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: ada")
	assert.Contains(t, out, "Friends:  bob")
	assert.NotContains(t, out, "secret-token")
}

func TestLogout(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1")
	env.login(t, localstore.User{Username: "ada", Token: "tok"})

	out, err := env.run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out!\n", out)

	st, err := localstore.Load(env.sessionPath)
	require.NoError(t, err)
	assert.False(t, st.IsAuthenticated())
}

func TestJoinWithRejectedToken(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		keepLogin bool
	}{
		{name: "expired token clears session", code: proto.CodeTokenExpired},
		{name: "invalid token keeps session", code: proto.CodeInvalidToken, keepLogin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(proto.HandshakeError{Error: "rejected", Code: tt.code})
			}))
			t.Cleanup(srv.Close)

			env := newCLIEnv(t, srv.URL)
			t.Setenv("GABGATE_CLIENT_WS_URL", "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
			env.login(t, localstore.User{ID: 1, Username: "ada", Token: "tok"})

			out, err := env.run(t, "join", "abc")
			require.ErrorIs(t, err, errReported)
			assert.Equal(t, client.MsgUnauthorized+"\n", out)

			st, err := localstore.Load(env.sessionPath)
			require.NoError(t, err)
			assert.Equal(t, tt.keepLogin, st.IsAuthenticated())
		})
	}
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	friends := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			if r.URL.Query().Get("username") == "bob" {
				_ = json.NewEncoder(w).Encode([]api.User{{ID: 2, Username: "bob"}})
				return
			}
			_ = json.NewEncoder(w).Encode([]api.User{})
		case r.Method == http.MethodPost && r.URL.Path == "/friends/2":
			friends = append(friends, "bob")
			_ = json.NewEncoder(w).Encode(api.User{ID: 1, Username: "ada", Friends: friends})
		case r.Method == http.MethodGet && r.URL.Path == "/friends/online":
			_ = json.NewEncoder(w).Encode([]api.FriendStatus{{Username: "bob", Online: true}, {Username: "cy"}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFriendsAddAndList(t *testing.T) {
	srv := fakeAPI(t)
	env := newCLIEnv(t, srv.URL)
	env.login(t, localstore.User{ID: 1, Username: "ada", Token: "tok"})

	out, err := env.run(t, "friends", "bob", "-a")
	require.NoError(t, err)
	assert.Equal(t, "bob added to friends!\n", out)

	st, err := localstore.Load(env.sessionPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, st.User.Friends)

	out, err = env.run(t, "friends")
	require.NoError(t, err)
	assert.Contains(t, out, "Username")
	assert.Regexp(t, `bob\s+Online`, out)
	assert.Regexp(t, `cy\s+Offline`, out)
}

func TestFriendsUnknownUser(t *testing.T) {
	srv := fakeAPI(t)
	env := newCLIEnv(t, srv.URL)
	env.login(t, localstore.User{ID: 1, Username: "ada", Token: "tok"})

	out, err := env.run(t, "friends", "ghost", "--remove")
	require.ErrorIs(t, err, errReported)
	assert.Equal(t, "User not found!\n", out)
}

func TestFriendsNeedsAction(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1")
	env.login(t, localstore.User{ID: 1, Username: "ada", Token: "tok"})

	out, err := env.run(t, "friends", "bob")
	require.ErrorIs(t, err, errReported)
	assert.Equal(t, "Please choose --add or --remove!\n", out)

	_, err = env.run(t, "friends", "bob", "-a", "-r")
	require.Error(t, err)
}

func TestRenderFriendsEmpty(t *testing.T) {
	assert.Equal(t, "You have no friends yet.\n", renderFriends(nil))
}
