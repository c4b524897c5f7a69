package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawFileWriteTo(t *testing.T) {
	assert := assert.New(t)

	f := &RawFile{FPath: "dir/out.yaml", Content: []byte("hello")}
	var sb strings.Builder
	n, err := f.WriteTo(&sb)
	assert.NoError(err)
	assert.Equal(int64(5), n)
	assert.Equal("hello", sb.String())

	clone := f.Clone()
	assert.Equal(f.Path(), clone.Path())
	f.Content[0] = 'H'
	var sb2 strings.Builder
	_, err = clone.WriteTo(&sb2)
	assert.NoError(err)
	assert.Equal("hello", sb2.String(), "clone must not share content")
}

func TestOutputTo(t *testing.T) {
	assert := assert.New(t)

	dest := t.TempDir()
	files := []File{
		&RawFile{FPath: "a.yaml", Content: []byte("a")},
		&RawFile{FPath: filepath.Join("nested", "b.yaml"), Content: []byte("b")},
	}
	err := OutputTo(files, dest)
	if !assert.NoError(err) {
		return
	}

	content, err := os.ReadFile(filepath.Join(dest, "a.yaml"))
	assert.NoError(err)
	assert.Equal("a", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "nested", "b.yaml"))
	assert.NoError(err)
	assert.Equal("b", string(content))
}
