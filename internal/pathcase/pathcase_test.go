package pathcase

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"Lowercase", "/media/movie.avi", "/media/movie.avi"},
		{"Mixed", "/Media/Thumbs.DB", "/media/thumbs.db"},
		{"Decomposed", "/films/Cafe\u0301.mkv", "/films/caf\u00e9.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("/A/B.avi", "/a/b.AVI"))
	assert.False(t, Equal("/a/b.avi", "/a/c.avi"))
}

func TestNormcase(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, `c:\media\movie.avi`, Normcase("C:/Media/Movie.AVI"))
		return
	}
	assert.Equal(t, "/Media/Movie.AVI", Normcase("/Media/Movie.AVI"))
}
