package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/thorium/pkg/apierror"
)

func TestExitCodeForDomainError(t *testing.T) {
	assert.Equal(t, 3, exitCodeFor(apierror.NewNotFound("image")))
}

func TestExitCodeForPlainErrorIsGeneric(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errors.New("boom")))
}
