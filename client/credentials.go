package client

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ReadToken resolves the curius JWT: the CURIUS_JWT environment variable
// wins, then the file named by CURIUS_JWT_PATH, then the default
// ~/.credentials/curius_jwt. An empty string means unauthenticated.
func ReadToken() string {
	if token := strings.TrimSpace(os.Getenv("CURIUS_JWT")); token != "" {
		return token
	}

	path := os.Getenv("CURIUS_JWT_PATH")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		path = filepath.Join(home, ".credentials", "curius_jwt")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithFields(log.Fields{
			"path": path,
		}).Debug("No curius JWT found, proceeding unauthenticated")
		return ""
	}
	return strings.TrimSpace(string(data))
}
