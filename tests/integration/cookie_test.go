package integration_test

import (
	"net/http"

	"github.com/localnerve/relationsdb/internal/middleware"
)

func sessionCookie(subject string) *http.Cookie {
	return &http.Cookie{Name: middleware.SessionCookie, Value: subject}
}
