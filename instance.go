package flagsync

import (
	"os"
	"os/user"

	"github.com/google/uuid"
)

// InstanceID builds an instance identifier from a user name and a host name.
// Without a user name the prefix is "generated-<uuid>".
func InstanceID(username, hostname string) string {
	if username == "" {
		username = "generated-" + uuid.NewString()
	}
	return username + "-" + hostname
}

// DefaultInstanceID identifies the current process as <user>-<host>.
func DefaultInstanceID() string {
	var name string
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "undefined"
	}
	return InstanceID(name, host)
}
