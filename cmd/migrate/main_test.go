package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://reviews:xxxxx@db:5432/reviews?sslmode=require",
		maskDatabaseURL("postgres://reviews:s3cret@db:5432/reviews?sslmode=require"))
	assert.Equal(t, "postgres://db:5432/reviews", maskDatabaseURL("postgres://db:5432/reviews"))
	assert.Equal(t, "***", maskDatabaseURL("host=db password=s3cret"))
}
