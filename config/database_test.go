package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetDBAndGetDB(t *testing.T) {
	original := GetDB()
	defer SetDB(original)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	SetDB(db)
	assert.Same(t, db, GetDB())
}
