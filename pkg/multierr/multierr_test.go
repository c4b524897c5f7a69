package multierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendMethod(t *testing.T) {
	assert := assert.New(t)

	var e Error
	e.Append(nil)
	assert.Nil(e.ErrOrNil())

	err1 := errors.New("first")
	e.Append(err1)
	assert.Same(err1, e.ErrOrNil())

	err2 := errors.New("second")
	e.Append(err2)
	assert.Len(e, 2)
	assert.Contains(e.Error(), "2 errors occurred")
	assert.Contains(e.Error(), "first")
	assert.Contains(e.Error(), "second")
}

func TestAppendFunc(t *testing.T) {
	assert := assert.New(t)

	err1 := errors.New("first")
	err2 := errors.New("second")

	assert.Nil(Append(nil, nil))
	assert.Equal(Error{err1}, Append(err1, nil))
	assert.Equal(Error{err2}, Append(nil, err2))
	assert.Equal(Error{err1, err2}, Append(err1, err2))
}

func TestIsAndAs(t *testing.T) {
	assert := assert.New(t)

	sentinel := errors.New("sentinel")
	wrapped := fmt.Errorf("context: %w", sentinel)

	var e Error
	e.Append(errors.New("other"))
	e.Append(wrapped)

	assert.True(errors.Is(e, sentinel))
	assert.False(errors.Is(e, errors.New("unrelated")))
}
