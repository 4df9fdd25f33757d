package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "salon_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTripThroughCookie(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Empty(t, sess.User())

	sess.SetUser("admin")
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "admin", loaded.User())
	require.Equal(t, sess.ID, loaded.ID)
}

func TestAnonymousSessionIsNotStored(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	require.Empty(t, mr.Keys())
	require.Empty(t, rr.Result().Cookies())
}

func TestUnknownCookieGetsFreshID(t *testing.T) {
	sm, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "salon_session", Value: "attacker-chosen"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "attacker-chosen", sess.ID)
}

func TestDestroyRemovesSession(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("admin")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	sm.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	require.False(t, mr.Exists("session:"+sess.ID))
	require.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestRenewRotatesID(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("admin")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))
	oldID := sess.ID

	require.NoError(t, sm.Renew(ctx, sess))
	require.NotEqual(t, oldID, sess.ID)
	require.False(t, mr.Exists("session:"+oldID))
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage("", "")
	require.NoError(t, err)
	require.Equal(t, Page{Limit: 100, Offset: 0}, page)

	page, err = ParsePage("25", "50")
	require.NoError(t, err)
	require.Equal(t, Page{Limit: 25, Offset: 50}, page)

	page, err = ParsePage("5000", "0")
	require.NoError(t, err)
	require.Equal(t, MaxLimit, page.Limit)

	_, err = ParsePage("abc", "0")
	require.ErrorIs(t, err, ErrInvalidPage)
	_, err = ParsePage("10", "-1")
	require.ErrorIs(t, err, ErrInvalidPage)
}
