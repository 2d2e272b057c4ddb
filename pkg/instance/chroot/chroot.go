// Package chroot parses coordination connection strings of the form
//
//	host[:port][,host[:port]...]/path/to/root
//
// into a host list and the instance root path (the chroot). Every instance
// owns exactly one root; a connection string without one is rejected.
package chroot

import (
	"net"
	"path"
	"strconv"
	"strings"

	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

// ConfigKey is reported as the resource of parse errors.
const ConfigKey = "coordination.connect"

// Address is a parsed connection string.
type Address struct {
	Hosts []string
	Root  string
}

// Parse splits connect into hosts and root. The root must be present and
// must not be "/". Trailing slashes are ignored so "/a/b/" and "/a/b" name
// the same instance.
func Parse(connect string) (Address, error) {
	connect = strings.TrimSpace(connect)
	if connect == "" {
		return Address{}, invalid("connection string is empty")
	}

	idx := strings.IndexByte(connect, '/')
	if idx < 0 {
		return Address{}, invalid("connection string " + strconv.Quote(connect) + " has no chroot; append a root path such as /ordo/<app>")
	}

	hosts, err := parseHosts(connect[:idx])
	if err != nil {
		return Address{}, err
	}

	root, err := parseRoot(connect[idx:])
	if err != nil {
		return Address{}, err
	}

	return Address{Hosts: hosts, Root: root}, nil
}

func parseHosts(s string) ([]string, error) {
	if s == "" {
		return nil, invalid("connection string has no hosts")
	}

	parts := strings.Split(s, ",")
	hosts := make([]string, 0, len(parts))
	for _, h := range parts {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, invalid("connection string contains an empty host")
		}
		if strings.Contains(h, ":") {
			host, port, err := net.SplitHostPort(h)
			if err != nil || host == "" {
				return nil, invalid("invalid host " + strconv.Quote(h))
			}
			n, err := strconv.Atoi(port)
			if err != nil || n < 1 || n > 65535 {
				return nil, invalid("invalid port in host " + strconv.Quote(h))
			}
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

func parseRoot(s string) (string, error) {
	root := strings.TrimRight(s, "/")
	if root == "" {
		return "", invalid("chroot must not be the coordination root \"/\"")
	}
	for _, seg := range strings.Split(root[1:], "/") {
		switch seg {
		case "":
			return "", invalid("chroot " + strconv.Quote(s) + " contains an empty path segment")
		case ".", "..":
			return "", invalid("chroot " + strconv.Quote(s) + " contains a relative path segment")
		}
	}
	return root, nil
}

func invalid(msg string) error {
	return instanceerrors.NewInvalidConfigurationError(ConfigKey, msg)
}

// String renders the canonical connection string.
func (a Address) String() string {
	return strings.Join(a.Hosts, ",") + a.Root
}

// Endpoints returns the host list with defaultPort appended to entries that
// carry no port.
func (a Address) Endpoints(defaultPort int) []string {
	out := make([]string, len(a.Hosts))
	for i, h := range a.Hosts {
		if _, _, err := net.SplitHostPort(h); err == nil {
			out[i] = h
			continue
		}
		out[i] = net.JoinHostPort(h, strconv.Itoa(defaultPort))
	}
	return out
}

// Join returns the path of a child of root.
func Join(root string, elems ...string) string {
	return path.Join(append([]string{root}, elems...)...)
}
