// Package blobstore holds the document blob collaborator: one
// canonical document text per project, addressed by an opaque locator.
package blobstore

import (
	"context"
	"errors"
	"path"
)

// ErrBlobNotFound is returned when a locator resolves to nothing.
var ErrBlobNotFound = errors.New("blob not found")

type Store interface {
	// CreateContainer provisions a container for one project and
	// returns its locator.
	CreateContainer(ctx context.Context, name string) (string, error)
	// WriteBlob overwrites the blob at locator. It fails when the
	// enclosing container was never created; it never provisions one.
	WriteBlob(ctx context.Context, locator string, text string) error
	ReadBlob(ctx context.Context, locator string) (string, error)
	// DeleteContainerRecursive removes the container and everything in
	// it. Deleting an absent container succeeds.
	DeleteContainerRecursive(ctx context.Context, locator string) error
}

// DocumentLocator is where a project's canonical document lives inside
// its container.
func DocumentLocator(container string) string {
	return path.Join(container, "document.json")
}
