package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mercator-hq/ganymede/pkg/pool"
)

// ParseList reads a proxy-list from r. Each non-empty line has the form
// "host:port" or "host:port:username:password"; lines starting with "#" are
// ignored. A malformed line aborts the parse with an error naming the line
// number.
func ParseList(r io.Reader) ([]pool.Descriptor, error) {
	var out []pool.Descriptor

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy list: %w", err)
	}

	return out, nil
}

// LoadFile reads and parses the proxy-list file at path.
func LoadFile(path string) ([]pool.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy list %q: %w", path, err)
	}
	defer f.Close()

	descriptors, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("proxy list %q: %w", path, err)
	}
	return descriptors, nil
}

// ParseDescriptor parses one "host:port" or "host:port:user:pass" string.
func ParseDescriptor(s string) (pool.Descriptor, error) {
	return parseLine(strings.TrimSpace(s))
}

func parseLine(line string) (pool.Descriptor, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 && len(parts) != 4 {
		return pool.Descriptor{}, fmt.Errorf("malformed proxy %q (want host:port or host:port:user:pass)", line)
	}

	host := strings.TrimSpace(parts[0])
	if host == "" {
		return pool.Descriptor{}, fmt.Errorf("malformed proxy %q: empty host", line)
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || port < 1 || port > 65535 {
		return pool.Descriptor{}, fmt.Errorf("malformed proxy %q: invalid port %q", line, parts[1])
	}

	d := pool.Descriptor{Host: host, Port: port}
	if len(parts) == 4 {
		d.Username = parts[2]
		d.Password = parts[3]
	}
	return d, nil
}
