package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPut_StoresAndServes(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)

	obj, err := s.Put(context.Background(), BucketKYC, "user-1", "passport.PNG", strings.NewReader("image-bytes"), 1024)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(obj.Key, "kyc-documents/user-1/"))
	require.True(t, strings.HasSuffix(obj.Key, ".png"))
	require.Equal(t, "http://localhost:8080/files/"+obj.Key, obj.URL)
	require.EqualValues(t, len("image-bytes"), obj.Size)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/" + obj.Key)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image-bytes", string(body))
}

func TestPut_Limits(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Put(ctx, BucketDepositProof, "user-1", "proof.exe", strings.NewReader("x"), 10)
	require.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = s.Put(ctx, BucketDepositProof, "user-1", "proof.pdf", bytes.NewReader(make([]byte, 11)), 10)
	require.True(t, errors.Is(err, ErrTooLarge))

	_, err = s.Put(ctx, BucketDepositProof, "user-1", "proof.pdf", strings.NewReader(""), 10)
	require.True(t, errors.Is(err, ErrEmpty))

	// exactly at the limit is accepted
	_, err = s.Put(ctx, BucketDepositProof, "user-1", "proof.pdf", bytes.NewReader(make([]byte, 10)), 10)
	require.NoError(t, err)
}

func TestHandler_DoesNotListDirectories(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	obj, err := s.Put(context.Background(), BucketKYC, "user-1", "selfie.jpg", strings.NewReader("face"), 1024)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for _, dir := range []string{"/files/", "/files/kyc-documents/", "/files/kyc-documents", "/files/kyc-documents/user-1/"} {
		resp, err := http.Get(srv.URL + dir)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode, dir)
		require.NotContains(t, string(body), "user-1", dir)
	}

	resp, err := http.Get(srv.URL + "/files/" + obj.Key)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
