package utils

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		magic []byte
		want  bool
	}{
		{
			name:  "classic netcdf",
			data:  []byte("CDF\x01\x00\x00\x00\x00"),
			magic: []byte("CDF\x01"),
			want:  true,
		},
		{
			name:  "hdf5 signature",
			data:  []byte("\x89HDF\r\n\x1a\n\x00\x00"),
			magic: []byte("\x89HDF\r\n\x1a\n"),
			want:  true,
		},
		{
			name:  "different version byte",
			data:  []byte("CDF\x02"),
			magic: []byte("CDF\x01"),
			want:  false,
		},
		{
			name:  "file shorter than magic",
			data:  []byte("CD"),
			magic: []byte("CDF\x01"),
			want:  false,
		},
		{
			name:  "empty file",
			data:  nil,
			magic: []byte("CDF\x01"),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HasPrefix(bytes.NewReader(tt.data), tt.magic))
		})
	}
}

func TestHasPrefixConcurrent(t *testing.T) {
	r := bytes.NewReader([]byte("\x89HDF\r\n\x1a\n"))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				require.True(t, HasPrefix(r, []byte("\x89HDF")))
				require.False(t, HasPrefix(r, []byte("CDF\x01")))
			}
		}()
	}
	wg.Wait()
}
