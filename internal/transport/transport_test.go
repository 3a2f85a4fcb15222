package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exchange always targets <server>:53, matching a real upstream nameserver;
// these tests stand up a loopback listener on that same port, which
// requires the same privilege the daemon itself needs to bind it.
func TestExchangeRoundTrip(t *testing.T) {
	addr, err := net.ResolveUDPAddr("udp4", "127.0.0.1:53")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		t.Skipf("cannot bind loopback port 53 in this environment: %v", err)
	}
	defer conn.Close()

	go func() {
		buf := make([]byte, 512)
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		conn.WriteToUDP(append([]byte{}, buf[:n]...), peer)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := Exchange(ctx, []byte("query"), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte("query"), reply)
}

func TestExchangeContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exchange(ctx, []byte("query"), "127.0.0.1")
	assert.Error(t, err)
}

func TestResolveEncodesQueryAsBase64URL(t *testing.T) {
	var gotParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get("dns")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	body, err := Resolve(ctx, srv.URL, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "3q2-7w", gotParam)
}
