package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	assert.Equal(t,
		"postgres://postgres@localhost:5432/movements",
		ConnString(NewDBPoolParams{DBHost: "localhost", DBPort: "5432", DBName: "movements"}),
	)
	assert.Equal(t,
		"postgres://baby:s3cr%2Ft@db:6543/movements",
		ConnString(NewDBPoolParams{DBHost: "db", DBPort: "6543", DBName: "movements", DBUser: "baby", DBPassword: "s3cr/t"}),
	)
	assert.Equal(t,
		"postgres://postgres@localhost:5432/movements?sslmode=disable",
		ConnString(NewDBPoolParams{DBHost: "localhost", DBPort: "5432", DBName: "movements", SSLMode: "disable"}),
	)
}
