package storage

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSGetObject(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "tickets/1/shot.png", []byte("pngdata"), 0o644))
	s := NewFSFrom(mem)

	obj, err := s.GetObject(context.Background(), "/tickets/1/shot.png")
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(body))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(7), obj.ContentLength)
}

func TestFSGetObjectNotFound(t *testing.T) {
	s := NewFSFrom(afero.NewMemMapFs())
	_, err := s.GetObject(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSGetObjectDirectory(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("dir", 0o755))
	_, err := NewFSFrom(mem).GetObject(context.Background(), "dir")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSGetObjectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFSFrom(afero.NewMemMapFs()).GetObject(ctx, "x.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a/b.png", want: "a/b.png"},
		{in: "/a//b.png", want: "a/b.png"},
		{in: " a/./b.png ", want: "a/b.png"},
		{in: `a\b.png`, want: "a/b.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
