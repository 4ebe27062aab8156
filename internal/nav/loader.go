package nav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// FragmentLoader fetches an HTML fragment and injects it into a named
// container. It is an external collaborator: the controller only cares about
// success or failure, and never retries on its own.
type FragmentLoader interface {
	Load(ctx context.Context, url, containerID string) error
	Clear(containerID string)
}

// Containers is a set of named fragment sinks standing in for the shell
// page's DOM containers.
type Containers struct {
	mu       sync.RWMutex
	contents map[string][]byte
}

// NewContainers returns an empty container set.
func NewContainers() *Containers {
	return &Containers{contents: make(map[string][]byte)}
}

// Set stores content for the container.
func (c *Containers) Set(id string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents[id] = content
}

// Content returns the container's current content.
func (c *Containers) Content(id string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contents[id]
}

// Clear empties the container.
func (c *Containers) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contents, id)
}

// HTTPLoader fetches fragments over HTTP from a base URL and injects them
// into a container set. Failures leave the previous content unchanged.
type HTTPLoader struct {
	Client     *http.Client
	BaseURL    string
	Containers *Containers
}

// NewHTTPLoader creates an HTTPLoader using the default client.
func NewHTTPLoader(baseURL string, containers *Containers) *HTTPLoader {
	return &HTTPLoader{Client: http.DefaultClient, BaseURL: baseURL, Containers: containers}
}

// Load fetches the fragment and stores it in the container.
func (l *HTTPLoader) Load(ctx context.Context, url, containerID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+url, nil)
	if err != nil {
		return err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fragment %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	l.Containers.Set(containerID, body)
	return nil
}

// Clear empties the container.
func (l *HTTPLoader) Clear(containerID string) {
	l.Containers.Clear(containerID)
}
